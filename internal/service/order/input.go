package order

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"headless-storefront/internal/domain"
)

// ItemInput is one ordered line as posted by the storefront.
type ItemInput struct {
	ID          domain.FlexString `json:"id"`
	VariationID domain.FlexString `json:"variationId,omitempty"`
	Name        string            `json:"name,omitempty"`
	Price       *domain.Amount    `json:"price"`
	Quantity    json.RawMessage   `json:"quantity"`
	Variation   map[string]string `json:"variation,omitempty"`
}

type SubmitInput struct {
	CartID          string
	Items           []ItemInput
	Shipping        domain.Address
	Billing         *domain.Address
	PaymentIntentID string
}

type OrderResult struct {
	OrderID string `json:"orderId"`
}

// line is a validated ItemInput.
type line struct {
	productID   int64
	variationID int64
	name        string
	price       domain.Amount
	quantity    int
	variation   map[string]string
}

func validate(in SubmitInput) ([]line, domain.Address, error) {
	if strings.TrimSpace(in.PaymentIntentID) == "" {
		return nil, domain.Address{}, fmt.Errorf("%w: payment intent id required", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, domain.Address{}, fmt.Errorf("%w: at least one item required", domain.ErrInvalidInput)
	}
	lines := make([]line, 0, len(in.Items))
	for i, item := range in.Items {
		l, err := validateItem(item)
		if err != nil {
			return nil, domain.Address{}, fmt.Errorf("%w: item %d: %s", domain.ErrInvalidInput, i, err)
		}
		lines = append(lines, l)
	}

	if err := validateAddress(in.Shipping); err != nil {
		return nil, domain.Address{}, fmt.Errorf("%w: shipping %s", domain.ErrInvalidInput, err)
	}
	billing := in.Shipping
	if in.Billing != nil {
		billing = *in.Billing
		if err := validateAddress(billing); err != nil {
			return nil, domain.Address{}, fmt.Errorf("%w: billing %s", domain.ErrInvalidInput, err)
		}
	}
	if strings.TrimSpace(billing.Email) == "" {
		return nil, domain.Address{}, fmt.Errorf("%w: billing email required", domain.ErrInvalidInput)
	}
	return lines, billing, nil
}

func validateItem(item ItemInput) (line, error) {
	id, err := strconv.ParseInt(item.ID.String(), 10, 64)
	if err != nil || id <= 0 {
		return line{}, fmt.Errorf("product id %q invalid", item.ID)
	}
	var variationID int64
	if item.VariationID != "" {
		variationID, err = strconv.ParseInt(item.VariationID.String(), 10, 64)
		if err != nil || variationID < 0 {
			return line{}, fmt.Errorf("variation id %q invalid", item.VariationID)
		}
	}
	if item.Price == nil || item.Price.IsNegative() {
		return line{}, fmt.Errorf("price required")
	}
	qty, ok := domain.ParseQuantity(item.Quantity)
	if !ok || qty <= 0 {
		return line{}, fmt.Errorf("quantity must be positive")
	}
	if qty > domain.MaxLineQuantity {
		return line{}, fmt.Errorf("quantity %d exceeds %d", qty, domain.MaxLineQuantity)
	}
	return line{
		productID:   id,
		variationID: variationID,
		name:        item.Name,
		price:       *item.Price,
		quantity:    qty,
		variation:   item.Variation,
	}, nil
}

func validateAddress(a domain.Address) error {
	required := []struct{ field, value string }{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"address_1", a.Address1},
		{"city", a.City},
		{"postcode", a.Postcode},
		{"country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s required", r.field)
		}
	}
	return nil
}
