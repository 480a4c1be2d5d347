package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/veloracommerce/storefront-client/pkg/logger"
)

type fakeTransport struct {
	paths    []string
	response []byte
	err      error
}

func (f *fakeTransport) Get(ctx context.Context, path string) ([]byte, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func testClient(response string) (*Client, *fakeTransport) {
	transport := &fakeTransport{response: []byte(response)}
	logg := logger.New(logger.Options{ServiceName: "catalog-test", Output: &strings.Builder{}})
	return NewClient(transport, logg), transport
}

func TestListBuildsFilterQuery(t *testing.T) {
	client, transport := testClient(`{"products": []}`)
	min := decimal.NewFromInt(10)

	_, err := client.List(context.Background(), ListFilter{
		Category: "hoodies",
		Search:   "zip",
		MinPrice: &min,
		Sort:     "price_asc",
		Page:     2,
		Limit:    24,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	path := transport.paths[0]
	for _, fragment := range []string{"category=hoodies", "search=zip", "minPrice=10", "sort=price_asc", "page=2", "limit=24"} {
		if !strings.Contains(path, fragment) {
			t.Fatalf("query missing %q: %s", fragment, path)
		}
	}
}

func TestListEmptyFilterHasNoQuery(t *testing.T) {
	client, transport := testClient(`{"products": []}`)
	if _, err := client.List(context.Background(), ListFilter{}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if transport.paths[0] != "/products" {
		t.Fatalf("unexpected path: %s", transport.paths[0])
	}
}

func TestDecodePageShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{
			name: "wrapped",
			body: `{"success": true, "data": {"products": [{"_id": "p1", "name": "Hoodie"}], "total": 40, "page": 2, "pages": 4}}`,
			want: 1,
		},
		{
			name: "bare object",
			body: `{"products": [{"_id": "p1"}, {"_id": "p2"}], "total": 2}`,
			want: 2,
		},
		{
			name: "bare array",
			body: `[{"_id": "p1"}]`,
			want: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := decodePage([]byte(tc.body))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if len(page.Products) != tc.want {
				t.Fatalf("expected %d products, got %+v", tc.want, page.Products)
			}
			if page.Page < 1 || page.Pages < 1 {
				t.Fatalf("paging counters must default to 1: %+v", page)
			}
		})
	}

	if _, err := decodePage([]byte(`"nope"`)); err == nil {
		t.Fatal("expected error for unrecognized shape")
	}
}

func TestGetProductShapes(t *testing.T) {
	for _, body := range []string{
		`{"product": {"_id": "p1", "name": "Hoodie", "price": 49.5}}`,
		`{"data": {"_id": "p1", "name": "Hoodie", "price": 49.5}}`,
		`{"_id": "p1", "name": "Hoodie", "price": 49.5}`,
	} {
		client, _ := testClient(body)
		product, err := client.Get(context.Background(), "p1")
		if err != nil {
			t.Fatalf("get failed for %s: %v", body, err)
		}
		if product.ID != "p1" || !product.Price.Equal(decimal.NewFromFloat(49.5)) {
			t.Fatalf("unexpected product: %+v", product)
		}
	}
}

func TestGetEscapesSlug(t *testing.T) {
	client, transport := testClient(`{"_id": "p1", "name": "Hoodie"}`)
	if _, err := client.Get(context.Background(), "classic hoodie"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if transport.paths[0] != "/products/classic%20hoodie" {
		t.Fatalf("slug not escaped: %s", transport.paths[0])
	}

	if _, err := client.Get(context.Background(), "  "); err == nil {
		t.Fatal("blank slug must be rejected before the network")
	}
}
