package cart

import (
	"encoding/json"
	"slices"
	"strings"

	"headless-storefront/internal/domain"
)

// Mutation actions accepted by Mutate.
const (
	ActionAddItem        = "add-item"
	ActionRemoveItem     = "remove-item"
	ActionUpdateQuantity = "update-quantity"
	ActionClear          = "clear"
)

// MutateInput is one cart mutation as posted by the storefront.
type MutateInput struct {
	Action   string          `json:"action"`
	Item     *ItemInput      `json:"item,omitempty"`
	Key      string          `json:"key,omitempty"`
	Quantity json.RawMessage `json:"quantity,omitempty"`
}

// ItemInput is a line item as the storefront sends it. Ids and quantities may
// arrive as numbers or strings.
type ItemInput struct {
	ID          domain.FlexString `json:"id"`
	VariationID domain.FlexString `json:"variationId,omitempty"`
	Key         string            `json:"key,omitempty"`
	Name        string            `json:"name,omitempty"`
	Price       *domain.Amount    `json:"price"`
	Quantity    json.RawMessage   `json:"quantity,omitempty"`
	Variation   map[string]string `json:"variation,omitempty"`
	Images      []string          `json:"images,omitempty"`
}

// DeriveKey identifies a product/variation combination: the product id, then
// the variation values ordered by attribute name, joined with "-".
func DeriveKey(id string, variation map[string]string) string {
	if len(variation) == 0 {
		return id
	}
	names := make([]string, 0, len(variation))
	for name := range variation {
		names = append(names, name)
	}
	slices.Sort(names)
	parts := make([]string, 0, len(names)+1)
	parts = append(parts, id)
	for _, name := range names {
		parts = append(parts, variation[name])
	}
	return strings.Join(parts, "-")
}
