package commerce

import "headless-storefront/internal/domain"

// MetaEntry is a key/value pair attached to orders and line items.
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type OrderLine struct {
	ProductID   int64       `json:"product_id"`
	VariationID int64       `json:"variation_id,omitempty"`
	Quantity    int         `json:"quantity"`
	MetaData    []MetaEntry `json:"meta_data,omitempty"`
}

type CouponLine struct {
	Code string `json:"code"`
}

// OrderRequest is the order payload accepted by POST /orders.
type OrderRequest struct {
	PaymentMethod      string         `json:"payment_method"`
	PaymentMethodTitle string         `json:"payment_method_title"`
	SetPaid            bool           `json:"set_paid"`
	TransactionID      string         `json:"transaction_id"`
	Billing            domain.Address `json:"billing"`
	Shipping           domain.Address `json:"shipping"`
	LineItems          []OrderLine    `json:"line_items"`
	CouponLines        []CouponLine   `json:"coupon_lines,omitempty"`
	MetaData           []MetaEntry    `json:"meta_data,omitempty"`
}

type Order struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Total  string `json:"total"`
}

type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type Attribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Product prices stay strings: the backend sends "" for unpriced products.
type Product struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      string  `json:"price"`
	Images     []Image `json:"images"`
	Variations []int64 `json:"variations"`
}

type Variation struct {
	ID         int64       `json:"id"`
	Price      string      `json:"price"`
	Image      *Image      `json:"image"`
	Attributes []Attribute `json:"attributes"`
}
