package catalog

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/logger"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

// Transport is the slice of the REST client the catalog depends on.
type Transport interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Product is the full storefront product document.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	Rating      float64         `json:"rating"`
	NumReviews  int             `json:"numReviews"`
}

// Page is one page of catalog results with server-side paging counters.
type Page struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// ListFilter narrows and orders a catalog listing. Zero values are omitted
// from the query string.
type ListFilter struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	Page     int
	Limit    int
}

func (f ListFilter) query() string {
	values := url.Values{}
	if f.Category != "" {
		values.Set("category", f.Category)
	}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.MinPrice != nil {
		values.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		values.Set("maxPrice", f.MaxPrice.String())
	}
	if f.Sort != "" {
		values.Set("sort", f.Sort)
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// Client reads the product catalog. All lookups are anonymous-safe.
type Client struct {
	transport Transport
	logg      *logger.Logger
}

func NewClient(transport Transport, logg *logger.Logger) *Client {
	return &Client{transport: transport, logg: logg}
}

// List fetches one page of products matching the filter.
func (c *Client) List(ctx context.Context, filter ListFilter) (Page, error) {
	body, err := c.transport.Get(ctx, "/products"+filter.query())
	if err != nil {
		return Page{}, err
	}
	return decodePage(body)
}

// Get fetches a single product by id or slug.
func (c *Client) Get(ctx context.Context, idOrSlug string) (Product, error) {
	idOrSlug = validators.SanitizeString(idOrSlug, 0)
	if idOrSlug == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id or slug is required")
	}

	body, err := c.transport.Get(ctx, "/products/"+url.PathEscape(idOrSlug))
	if err != nil {
		return Product{}, err
	}
	return decodeProduct(body)
}

// decodePage accepts the wrapped page shape, a bare {products: []} object,
// or a bare array. Paging counters default sensibly when the backend omits
// them.
func decodePage(body []byte) (Page, error) {
	var envelope struct {
		Success  bool            `json:"success"`
		Data     json.RawMessage `json:"data"`
		Products json.RawMessage `json:"products"`
		Total    int             `json:"total"`
		Page     int             `json:"page"`
		Pages    int             `json:"pages"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Data) > 0 {
			var page Page
			if err := json.Unmarshal(envelope.Data, &page); err == nil && page.Products != nil {
				return withDefaults(page), nil
			}
		}
		if envelope.Products != nil {
			var products []Product
			if err := json.Unmarshal(envelope.Products, &products); err == nil {
				return withDefaults(Page{
					Products: products,
					Total:    envelope.Total,
					Page:     envelope.Page,
					Pages:    envelope.Pages,
				}), nil
			}
		}
	}

	var products []Product
	if err := json.Unmarshal(body, &products); err == nil {
		return withDefaults(Page{Products: products, Total: len(products)}), nil
	}
	return Page{}, pkgerrors.New(pkgerrors.CodeInternal, "unrecognized catalog response shape")
}

func withDefaults(page Page) Page {
	if page.Products == nil {
		page.Products = []Product{}
	}
	if page.Total == 0 {
		page.Total = len(page.Products)
	}
	if page.Page == 0 {
		page.Page = 1
	}
	if page.Pages == 0 {
		page.Pages = 1
	}
	return page
}

// decodeProduct accepts {product}, {data}, or a bare product document.
func decodeProduct(body []byte) (Product, error) {
	var envelope struct {
		Product json.RawMessage `json:"product"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, raw := range [][]byte{envelope.Product, envelope.Data} {
			if len(raw) == 0 {
				continue
			}
			var product Product
			if err := json.Unmarshal(raw, &product); err == nil && product.ID != "" {
				return product, nil
			}
		}
	}

	var product Product
	if err := json.Unmarshal(body, &product); err != nil || product.ID == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeInternal, "unrecognized product response shape")
	}
	return product, nil
}
