package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/session"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrAmountMismatch),
		errors.Is(err, domain.ErrPaymentNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionMismatch),
		errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPaymentCompleted),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and an {"error": ...} body. Server-side
// failures are logged and not echoed to the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = "upstream service unavailable"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
