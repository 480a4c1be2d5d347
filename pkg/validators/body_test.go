package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
)

type addPayload struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

func TestStructRejectsInvalidInput(t *testing.T) {
	err := Struct(addPayload{ProductID: "", Quantity: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected typed validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["productId"] != "is required" {
		t.Fatalf("expected json tag name in details, got %v", details)
	}
}

func TestStructAcceptsValidInput(t *testing.T) {
	if err := Struct(addPayload{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/cart/add", strings.NewReader(`{"productId":"p1","quantity":3}`))
	var payload addPayload
	if err := DecodeJSONBody(req, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.ProductID != "p1" || payload.Quantity != 3 {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	req = httptest.NewRequest("POST", "/cart/add", strings.NewReader(`{"productId":"p1","bogus":true}`))
	if err := DecodeJSONBody(req, &payload); err == nil {
		t.Fatal("unknown fields should be rejected")
	}

	req = httptest.NewRequest("POST", "/cart/add", strings.NewReader(`not json`))
	if err := DecodeJSONBody(req, &payload); err == nil {
		t.Fatal("malformed body should be rejected")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  SAVE10  ", 0); got != "SAVE10" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Fatalf("expected truncation, got %q", got)
	}
}
