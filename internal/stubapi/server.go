package stubapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/veloracommerce/storefront-client/internal/catalog"
	"github.com/veloracommerce/storefront-client/internal/orders"
	"github.com/veloracommerce/storefront-client/pkg/logger"
	"github.com/veloracommerce/storefront-client/pkg/types"
)

// Server is an in-memory storefront backend with the same wire contract as
// production: wrapped response envelopes, server-computed cart totals,
// stock checks, coupon validation, and price-change flagging. It backs
// local development (cmd/mockapi) and integration tests.
type Server struct {
	logg *logger.Logger

	mu       sync.Mutex
	products []catalog.Product
	users    map[string]stubUser       // keyed by email
	tokens   map[string]string         // token -> email
	carts    map[string]*sessionCart   // keyed by cart owner
	wishes   map[string][]string       // owner -> product ids
	orders   map[string][]orders.Order // owner -> placed orders
	coupons  map[string]decimal.Decimal
	orderSeq int
}

type stubUser struct {
	ID       string
	Name     string
	Email    string
	Password string
}

type sessionCart struct {
	ID     string
	Items  []sessionItem
	Coupon string
}

type sessionItem struct {
	ID        string
	ProductID string
	Quantity  int
	Size      string
	Color     string
	UnitPrice decimal.Decimal
}

// Shipping is flat-rate with a free threshold, matching production policy.
var (
	shippingRate  = decimal.NewFromInt(10)
	freeShipAbove = decimal.NewFromInt(100)
)

func NewServer(logg *logger.Logger) *Server {
	s := &Server{
		logg:    logg,
		users:   map[string]stubUser{},
		tokens:  map[string]string{},
		carts:   map[string]*sessionCart{},
		wishes:  map[string][]string{},
		orders:  map[string][]orders.Order{},
		coupons: map[string]decimal.Decimal{},
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	s.products = []catalog.Product{
		{
			ID: "prod-hoodie", Name: "Classic Hoodie", Slug: "classic-hoodie",
			Description: "Heavyweight fleece hoodie.", Price: decimal.NewFromInt(50),
			Category: "hoodies", Stock: 25,
			Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"black", "grey"},
		},
		{
			ID: "prod-tee", Name: "Logo Tee", Slug: "logo-tee",
			Description: "Organic cotton tee.", Price: decimal.NewFromFloat(19.5),
			Category: "tees", Stock: 100,
			Sizes: []string{"S", "M", "L"}, Colors: []string{"white", "navy"},
		},
		{
			ID: "prod-cap", Name: "Snapback Cap", Slug: "snapback-cap",
			Description: "Adjustable snapback.", Price: decimal.NewFromInt(24),
			Category: "accessories", Stock: 0,
		},
	}
	s.coupons["WELCOME10"] = decimal.NewFromInt(10)
	s.coupons["VIP25"] = decimal.NewFromInt(25)
}

// Routes builds the HTTP surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Get("/{idOrSlug}", s.handleGetProduct)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", s.handleGetCart)
		r.Delete("/", s.handleClearCart)
		r.Post("/add", s.handleAddToCart)
		r.Post("/coupon", s.handleApplyCoupon)
		r.Put("/{itemID}", s.handleUpdateQuantity)
		r.Delete("/{itemID}", s.handleRemoveItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", s.handlePlaceOrder)
		r.Get("/", s.handleListOrders)
		r.Get("/track/{orderNumber}", s.handleTrackOrder)
	})

	r.Route("/wishlist", func(r chi.Router) {
		r.Get("/", s.handleGetWishlist)
		r.Post("/", s.handleAddWish)
		r.Delete("/{productID}", s.handleRemoveWish)
	})

	// Dev-only knob: reprice a product so its cart lines go stale.
	r.Put("/admin/products/{productID}/price", s.handleSetPrice)

	return r
}

// SetPrice changes a product's price in place. Cart lines holding the old
// price are reported with priceChanged on the next cart response. Exposed
// for tests; the admin route wraps it for manual use.
func (s *Server) SetPrice(productID string, price decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == productID {
			s.products[i].Price = price
			return true
		}
	}
	return false
}

// owner resolves which cart/wishlist a request operates on. Anonymous
// requests share the guest session; the stub does not need per-guest carts.
func (s *Server) owner(r *http.Request) string {
	token := bearerToken(r)
	if token == "" {
		return "guest"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if email, ok := s.tokens[token]; ok {
		return email
	}
	return "guest"
}

func (s *Server) cartFor(owner string) *sessionCart {
	cart, ok := s.carts[owner]
	if !ok {
		cart = &sessionCart{ID: "cart-" + owner}
		s.carts[owner] = cart
	}
	return cart
}

func (s *Server) productByID(id string) (catalog.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}

// toWireCart projects a session cart onto the response model, computing
// totals and flagging lines whose captured price no longer matches the
// live product price.
func (s *Server) toWireCart(cart *sessionCart) types.Cart {
	out := types.Cart{ID: cart.ID, Items: []types.CartItem{}, CouponCode: cart.Coupon}

	subtotal := decimal.Zero
	for _, item := range cart.Items {
		product, ok := s.productByID(item.ProductID)
		line := types.CartItem{
			ItemID:    item.ID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			UnitPrice: item.UnitPrice,
		}
		if ok {
			line.Product = types.ProductRef{
				ID: product.ID, Name: product.Name, Slug: product.Slug,
				Image: product.Image, Stock: product.Stock, Price: product.Price,
				Sizes: product.Sizes, Colors: product.Colors,
			}
			line.PriceChanged = !product.Price.Equal(item.UnitPrice)
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		out.Items = append(out.Items, line)
	}

	out.Subtotal = subtotal
	if subtotal.IsPositive() && subtotal.LessThan(freeShipAbove) {
		out.Shipping = shippingRate
	} else {
		out.Shipping = decimal.Zero
	}
	if percent, ok := s.coupons[cart.Coupon]; ok {
		out.Discount = subtotal.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	} else {
		out.Discount = decimal.Zero
	}
	out.Total = subtotal.Add(out.Shipping).Sub(out.Discount)
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
