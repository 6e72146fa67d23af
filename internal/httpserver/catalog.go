package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) variantImages(c *gin.Context) {
	res, err := h.deps.CatalogSvc.VariantImages(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
