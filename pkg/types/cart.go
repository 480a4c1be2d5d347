package types

import "github.com/shopspring/decimal"

// ProductRef is a denormalized snapshot of product data captured when the
// cart line was fetched. It is display state, not a live catalog reference,
// and can go stale relative to the product's current listing.
type ProductRef struct {
	ID     string          `json:"_id"`
	Name   string          `json:"name"`
	Slug   string          `json:"slug,omitempty"`
	Image  string          `json:"image,omitempty"`
	Stock  int             `json:"stock"`
	Price  decimal.Decimal `json:"price"`
	Sizes  []string        `json:"sizes,omitempty"`
	Colors []string        `json:"colors,omitempty"`
}

// CartItem is one line entry in the cart. ItemID is the server-assigned
// mutation key for quantity updates and removal.
type CartItem struct {
	ItemID       string          `json:"_id"`
	Product      ProductRef      `json:"product"`
	Quantity     int             `json:"quantity"`
	Size         string          `json:"size,omitempty"`
	Color        string          `json:"color,omitempty"`
	UnitPrice    decimal.Decimal `json:"price"`
	PriceChanged bool            `json:"priceChanged,omitempty"`
}

// Cart holds the user's selected items plus server-computed totals. Totals
// are never recomputed on the client; they are displayed as received.
type Cart struct {
	ID         string          `json:"_id,omitempty"`
	Items      []CartItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	CouponCode string          `json:"couponCode,omitempty"`
}

// EmptyCart returns the safe default cart state.
func EmptyCart() Cart {
	return Cart{Items: []CartItem{}}
}

// ItemCount sums the quantities across all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// PriceChangedItems returns the lines whose recorded price no longer matches
// the live product price, as reported by the server.
func (c Cart) PriceChangedItems() []CartItem {
	var stale []CartItem
	for _, item := range c.Items {
		if item.PriceChanged {
			stale = append(stale, item)
		}
	}
	return stale
}

// CheckoutReady reports whether checkout may proceed: the cart must be
// non-empty and every line must carry its current price.
func (c Cart) CheckoutReady() bool {
	if c.IsEmpty() {
		return false
	}
	for _, item := range c.Items {
		if item.PriceChanged {
			return false
		}
	}
	return true
}
