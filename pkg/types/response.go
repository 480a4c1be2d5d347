package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartEnvelope is the wrapped response shape the backend usually returns.
type CartEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// cartPayload mirrors the raw cart object on the wire. The backend has been
// observed to spell the shipping amount as either "shippingCost" or
// "shipping"; pointers distinguish absent fields from explicit zeros.
type cartPayload struct {
	ID           string           `json:"_id"`
	Items        json.RawMessage  `json:"items"`
	Subtotal     decimal.Decimal  `json:"subtotal"`
	Shipping     decimal.Decimal  `json:"shipping"`
	ShippingCost *decimal.Decimal `json:"shippingCost"`
	Discount     decimal.Decimal  `json:"discount"`
	Total        decimal.Decimal  `json:"total"`
	CouponCode   string           `json:"couponCode"`
}

// NormalizeCart converts a raw success payload into a Cart. The priority
// order is fixed: the wrapped {success,data} envelope first, a bare cart
// object second, and the empty cart as the final fallback. Missing numeric
// fields default to zero and a missing item list to an empty slice, so the
// result is always safe to display.
func NormalizeCart(body []byte) Cart {
	if len(body) == 0 {
		return EmptyCart()
	}

	var envelope CartEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Success && len(envelope.Data) > 0 {
		var payload cartPayload
		if err := json.Unmarshal(envelope.Data, &payload); err == nil {
			return cartFromPayload(payload)
		}
	}

	var payload cartPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Items != nil {
		return cartFromPayload(payload)
	}

	return EmptyCart()
}

func cartFromPayload(payload cartPayload) Cart {
	cart := Cart{
		ID:         payload.ID,
		Items:      itemsFromRaw(payload.Items),
		Subtotal:   payload.Subtotal,
		Shipping:   payload.Shipping,
		Discount:   payload.Discount,
		Total:      payload.Total,
		CouponCode: payload.CouponCode,
	}
	if payload.ShippingCost != nil {
		cart.Shipping = *payload.ShippingCost
	}
	return cart
}

func itemsFromRaw(raw json.RawMessage) []CartItem {
	if len(raw) == 0 {
		return []CartItem{}
	}
	var items []CartItem
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []CartItem{}
	}
	return items
}
