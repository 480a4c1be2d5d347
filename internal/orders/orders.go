package orders

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/logger"
	"github.com/veloracommerce/storefront-client/pkg/types"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

// Transport is the slice of the REST client the orders client depends on.
type Transport interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
}

// CartGate exposes the cart state checkout needs: the integrity gate and
// the post-order reset.
type CartGate interface {
	Cart() types.Cart
	Clear(ctx context.Context) types.Cart
}

// ShippingAddress is the checkout delivery form.
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

// PlaceOrderInput is what the client contributes to an order; the line
// items and amounts come from the server-side session cart.
type PlaceOrderInput struct {
	Address       ShippingAddress `json:"address" validate:"required"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,oneof=card cod paypal"`
}

// Order is a placed order as the backend reports it.
type Order struct {
	ID          string           `json:"_id"`
	OrderNumber string           `json:"orderNumber"`
	Items       []types.CartItem `json:"items"`
	Address     ShippingAddress  `json:"address"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	Shipping    decimal.Decimal  `json:"shipping"`
	Discount    decimal.Decimal  `json:"discount"`
	Total       decimal.Decimal  `json:"total"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Client places and reads orders on behalf of the signed-in user.
type Client struct {
	transport Transport
	cart      CartGate
	logg      *logger.Logger
}

func NewClient(transport Transport, cart CartGate, logg *logger.Logger) *Client {
	return &Client{transport: transport, cart: cart, logg: logg}
}

// PlaceOrder submits the current cart for checkout. It refuses locally when
// the cart is empty or any line carries a stale price; the user must see
// and accept repriced lines (by reloading the cart) before paying. On
// success the cart is cleared.
func (c *Client) PlaceOrder(ctx context.Context, input PlaceOrderInput) (Order, error) {
	cart := c.cart.Cart()
	if cart.IsEmpty() {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if flagged := cart.PriceChangedItems(); len(flagged) > 0 {
		return Order{}, pkgerrors.New(pkgerrors.CodeConflict, "item prices changed since they were added").
			WithDetails(map[string]any{"items": itemIDs(flagged)})
	}
	if err := validators.Struct(input); err != nil {
		return Order{}, err
	}

	body, err := c.transport.Post(ctx, "/orders", input)
	if err != nil {
		return Order{}, err
	}
	order, err := decodeOrder(body)
	if err != nil {
		return Order{}, err
	}

	c.logg.Info(c.logg.WithField(ctx, "order_number", order.OrderNumber), "order placed")
	c.cart.Clear(ctx)
	return order, nil
}

// List fetches the user's order history.
func (c *Client) List(ctx context.Context) ([]Order, error) {
	body, err := c.transport.Get(ctx, "/orders")
	if err != nil {
		return nil, err
	}
	return decodeOrderList(body)
}

// Track fetches one order by its public order number. Works for guests who
// kept their confirmation number.
func (c *Client) Track(ctx context.Context, orderNumber string) (Order, error) {
	orderNumber = validators.SanitizeString(orderNumber, 64)
	if orderNumber == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	body, err := c.transport.Get(ctx, "/orders/track/"+url.PathEscape(orderNumber))
	if err != nil {
		return Order{}, err
	}
	return decodeOrder(body)
}

func itemIDs(items []types.CartItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ItemID)
	}
	return ids
}

// decodeOrder accepts {order}, {data}, or a bare order document.
func decodeOrder(body []byte) (Order, error) {
	var envelope struct {
		Order json.RawMessage `json:"order"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, raw := range [][]byte{envelope.Order, envelope.Data} {
			if len(raw) == 0 {
				continue
			}
			var order Order
			if err := json.Unmarshal(raw, &order); err == nil && order.ID != "" {
				return order, nil
			}
		}
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil || order.ID == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeInternal, "unrecognized order response shape")
	}
	return order, nil
}

func decodeOrderList(body []byte) ([]Order, error) {
	var envelope struct {
		Orders json.RawMessage `json:"orders"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, raw := range [][]byte{envelope.Orders, envelope.Data} {
			if len(raw) == 0 {
				continue
			}
			var orders []Order
			if err := json.Unmarshal(raw, &orders); err == nil {
				return orders, nil
			}
		}
	}

	var orders []Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unrecognized order list shape")
	}
	return orders, nil
}
