package wishlist

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/logger"
	"github.com/veloracommerce/storefront-client/pkg/types"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

// Transport is the slice of the REST client the wishlist depends on.
type Transport interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
	Delete(ctx context.Context, path string) ([]byte, error)
}

// Client mirrors the user's server-side wishlist and keeps a local count
// for badge display. Like the cart, the server response is authoritative;
// the local copy is whatever the last successful call returned.
type Client struct {
	transport Transport
	logg      *logger.Logger

	mu    sync.RWMutex
	items []types.ProductRef
}

func NewClient(transport Transport, logg *logger.Logger) *Client {
	return &Client{transport: transport, logg: logg}
}

// Count reports the locally known wishlist size.
func (c *Client) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns the locally known wishlist entries.
func (c *Client) Items() []types.ProductRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.ProductRef, len(c.items))
	copy(out, c.items)
	return out
}

// Load fetches the wishlist and replaces the local copy.
func (c *Client) Load(ctx context.Context) ([]types.ProductRef, error) {
	body, err := c.transport.Get(ctx, "/wishlist")
	if err != nil {
		return nil, err
	}
	return c.install(body)
}

type addPayload struct {
	ProductID string `json:"productId" validate:"required"`
}

// Add puts a product on the wishlist.
func (c *Client) Add(ctx context.Context, productID string) ([]types.ProductRef, error) {
	payload := addPayload{ProductID: validators.SanitizeString(productID, 0)}
	if err := validators.Struct(payload); err != nil {
		return nil, err
	}
	body, err := c.transport.Post(ctx, "/wishlist", payload)
	if err != nil {
		return nil, err
	}
	return c.install(body)
}

// Remove takes a product off the wishlist.
func (c *Client) Remove(ctx context.Context, productID string) ([]types.ProductRef, error) {
	productID = validators.SanitizeString(productID, 0)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	body, err := c.transport.Delete(ctx, "/wishlist/"+url.PathEscape(productID))
	if err != nil {
		return nil, err
	}
	return c.install(body)
}

func (c *Client) install(body []byte) ([]types.ProductRef, error) {
	items, err := decodeItems(body)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return items, nil
}

// decodeItems accepts {data: {items}}, {items}, or a bare array.
func decodeItems(body []byte) ([]types.ProductRef, error) {
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Data) > 0 {
			var nested struct {
				Items []types.ProductRef `json:"items"`
			}
			if err := json.Unmarshal(envelope.Data, &nested); err == nil && nested.Items != nil {
				return nested.Items, nil
			}
			var items []types.ProductRef
			if err := json.Unmarshal(envelope.Data, &items); err == nil {
				return items, nil
			}
		}
		if envelope.Items != nil {
			var items []types.ProductRef
			if err := json.Unmarshal(envelope.Items, &items); err == nil {
				return items, nil
			}
		}
	}

	var items []types.ProductRef
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unrecognized wishlist response shape")
	}
	return items, nil
}
