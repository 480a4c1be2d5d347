package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeCartWrappedShape(t *testing.T) {
	body := []byte(`{
		"success": true,
		"data": {
			"items": [{"_id": "i1", "quantity": 2, "price": 50}],
			"subtotal": 100,
			"shippingCost": 0
		}
	}`)

	cart := NormalizeCart(body)

	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(cart.Items))
	}
	if !cart.Shipping.IsZero() {
		t.Fatalf("expected shipping 0 from shippingCost, got %s", cart.Shipping)
	}
	if !cart.Subtotal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected subtotal 100, got %s", cart.Subtotal)
	}
	if !cart.Discount.IsZero() {
		t.Fatalf("missing discount should default to zero, got %s", cart.Discount)
	}
}

func TestNormalizeCartBareShape(t *testing.T) {
	body := []byte(`{
		"items": [{"_id": "i1", "quantity": 1, "price": 80}],
		"subtotal": 100,
		"shipping": 20
	}`)

	cart := NormalizeCart(body)

	if !cart.Shipping.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected shipping 20 from bare shape, got %s", cart.Shipping)
	}
	if len(cart.Items) != 1 || cart.Items[0].ItemID != "i1" {
		t.Fatalf("unexpected items: %+v", cart.Items)
	}
}

func TestNormalizeCartShippingCostWinsOverShipping(t *testing.T) {
	body := []byte(`{"items": [], "shipping": 20, "shippingCost": 5}`)

	cart := NormalizeCart(body)
	if !cart.Shipping.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("shippingCost should take priority, got %s", cart.Shipping)
	}
}

func TestNormalizeCartFallsBackToEmpty(t *testing.T) {
	cases := map[string][]byte{
		"empty body":        nil,
		"malformed json":    []byte(`{"items": `),
		"no recognized key": []byte(`{"success": false, "message": "nope"}`),
		"wrapped bad data":  []byte(`{"success": true, "data": {"items": "oops"}}`),
	}

	for name, body := range cases {
		cart := NormalizeCart(body)
		if cart.Items == nil || len(cart.Items) != 0 {
			t.Fatalf("%s: expected empty item slice, got %+v", name, cart.Items)
		}
		if !cart.Subtotal.IsZero() || !cart.Total.IsZero() {
			t.Fatalf("%s: expected zero totals", name)
		}
	}
}

func TestNormalizeCartNullItems(t *testing.T) {
	body := []byte(`{"items": null, "subtotal": 40}`)

	cart := NormalizeCart(body)
	if cart.Items == nil || len(cart.Items) != 0 {
		t.Fatalf("null items should normalize to empty slice, got %+v", cart.Items)
	}
	if !cart.Subtotal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("totals alongside null items should survive, got %s", cart.Subtotal)
	}
}

func TestCheckoutReady(t *testing.T) {
	stale := Cart{Items: []CartItem{
		{ItemID: "a", Quantity: 1},
		{ItemID: "b", Quantity: 1, PriceChanged: true},
	}}
	if stale.CheckoutReady() {
		t.Fatal("cart with a price-changed item must not be checkout ready")
	}

	fresh := Cart{Items: []CartItem{
		{ItemID: "a", Quantity: 1},
		{ItemID: "b", Quantity: 3},
	}}
	if !fresh.CheckoutReady() {
		t.Fatal("cart with current prices should be checkout ready")
	}

	if EmptyCart().CheckoutReady() {
		t.Fatal("empty cart must not be checkout ready")
	}
}

func TestItemCountAndPriceChangedItems(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{ItemID: "a", Quantity: 2},
		{ItemID: "b", Quantity: 3, PriceChanged: true},
	}}

	if got := cart.ItemCount(); got != 5 {
		t.Fatalf("expected item count 5, got %d", got)
	}
	stale := cart.PriceChangedItems()
	if len(stale) != 1 || stale[0].ItemID != "b" {
		t.Fatalf("unexpected stale items: %+v", stale)
	}
}
