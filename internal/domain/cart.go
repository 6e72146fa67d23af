package domain

// Cart is the cached shopping cart. Total is derived from Items and is
// recomputed by Recalculate before every write.
type Cart struct {
	ID    string     `json:"id"`
	Items []LineItem `json:"items"`
	Total Amount     `json:"total"`
}

type LineItem struct {
	ID          string            `json:"id"`
	VariationID string            `json:"variationId,omitempty"`
	Key         string            `json:"key"`
	Name        string            `json:"name,omitempty"`
	Price       Amount            `json:"price"`
	Quantity    int               `json:"quantity"`
	Variation   map[string]string `json:"variation,omitempty"`
	Images      []string          `json:"images,omitempty"`
}

// MaxLineQuantity caps the quantity of a single line item.
const MaxLineQuantity = 9999

// EmptyCart returns a cart with no items and a zero total.
func EmptyCart(id string) *Cart {
	return &Cart{ID: id, Items: []LineItem{}}
}

// Subtotal is price × quantity for the line.
func (li LineItem) Subtotal() Amount {
	return li.Price.MulInt(li.Quantity)
}

// Recalculate sets Total to the sum of line subtotals.
func (c *Cart) Recalculate() {
	var total Amount
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	c.Total = total
}

// IndexOf returns the position of the item with key, or -1.
func (c *Cart) IndexOf(key string) int {
	for i, item := range c.Items {
		if item.Key == key {
			return i
		}
	}
	return -1
}

// RemoveKey drops the item with key, preserving the order of the rest.
func (c *Cart) RemoveKey(key string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.Key != key {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

// TotalQuantity sums quantities across items.
func (c *Cart) TotalQuantity() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
