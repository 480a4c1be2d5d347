package stubapi_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/veloracommerce/storefront-client/internal/api"
	"github.com/veloracommerce/storefront-client/internal/cart"
	"github.com/veloracommerce/storefront-client/internal/catalog"
	"github.com/veloracommerce/storefront-client/internal/orders"
	"github.com/veloracommerce/storefront-client/internal/session"
	"github.com/veloracommerce/storefront-client/internal/snapshot"
	"github.com/veloracommerce/storefront-client/internal/stubapi"
	"github.com/veloracommerce/storefront-client/internal/wishlist"
	"github.com/veloracommerce/storefront-client/pkg/config"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/logger"
)

type clientStack struct {
	backend  *stubapi.Server
	session  *session.Manager
	cart     *cart.Store
	catalog  *catalog.Client
	orders   *orders.Client
	wishlist *wishlist.Client
}

func newStack(t *testing.T) *clientStack {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "stubapi-test", Output: &strings.Builder{}})

	backend := stubapi.NewServer(logg)
	server := httptest.NewServer(backend.Routes())
	t.Cleanup(server.Close)

	manager := session.NewManager(logg)
	client, err := api.NewClient(config.APIConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, manager, logg)
	require.NoError(t, err)

	store, err := cart.NewStore(context.Background(), cart.StoreParams{
		Transport: client,
		Snapshots: snapshot.NewMemoryStore(),
		Logger:    logg,
	})
	require.NoError(t, err)
	manager.Bind(client, store)

	return &clientStack{
		backend:  backend,
		session:  manager,
		cart:     store,
		catalog:  catalog.NewClient(client, logg),
		orders:   orders.NewClient(client, store, logg),
		wishlist: wishlist.NewClient(client, logg),
	}
}

func TestBrowseCatalog(t *testing.T) {
	stack := newStack(t)
	ctx := context.Background()

	page, err := stack.catalog.List(ctx, catalog.ListFilter{Category: "hoodies"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.Equal(t, "Classic Hoodie", page.Products[0].Name)

	product, err := stack.catalog.Get(ctx, "classic-hoodie")
	require.NoError(t, err)
	require.Equal(t, "prod-hoodie", product.ID)

	_, err = stack.catalog.Get(ctx, "no-such-product")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCartRoundTripComputesTotals(t *testing.T) {
	stack := newStack(t)
	ctx := context.Background()

	got := stack.cart.Load(ctx)
	require.True(t, got.IsEmpty())

	// Below the free-shipping threshold: 19.50 + 10 shipping.
	updated, err := stack.cart.Add(ctx, "prod-tee", 1, "M", "navy")
	require.NoError(t, err)
	require.Equal(t, 1, updated.ItemCount())
	require.True(t, updated.Shipping.Equal(decimal.NewFromInt(10)), "shipping=%s", updated.Shipping)
	require.True(t, updated.Total.Equal(decimal.NewFromFloat(29.5)), "total=%s", updated.Total)

	// Crossing the threshold drops shipping to zero.
	updated, err = stack.cart.Add(ctx, "prod-hoodie", 2, "L", "black")
	require.NoError(t, err)
	require.True(t, updated.Shipping.IsZero(), "shipping=%s", updated.Shipping)
	require.True(t, updated.Subtotal.Equal(decimal.NewFromFloat(119.5)))

	// Server-validated coupon adjusts discount and total.
	updated, err = stack.cart.ApplyCoupon(ctx, "WELCOME10")
	require.NoError(t, err)
	require.True(t, updated.Discount.Equal(decimal.NewFromFloat(11.95)), "discount=%s", updated.Discount)
	require.True(t, updated.Total.Equal(decimal.NewFromFloat(107.55)), "total=%s", updated.Total)

	_, err = stack.cart.ApplyCoupon(ctx, "BOGUS")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestOutOfStockRejection(t *testing.T) {
	stack := newStack(t)
	ctx := context.Background()

	_, err := stack.cart.Add(ctx, "prod-cap", 1, "", "")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.True(t, stack.cart.Cart().IsEmpty(), "failed add must not change the cart")
}

func TestPriceChangeGatesCheckoutEndToEnd(t *testing.T) {
	stack := newStack(t)
	ctx := context.Background()

	_, err := stack.cart.Add(ctx, "prod-hoodie", 2, "L", "black")
	require.NoError(t, err)
	require.True(t, stack.cart.CheckoutReady())

	// Reprice while the item sits in the cart.
	require.True(t, stack.backend.SetPrice("prod-hoodie", decimal.NewFromInt(60)))

	// The client only learns about it from the next server response.
	updated, err := stack.cart.UpdateQuantity(ctx, stack.cart.Cart().Items[0].ItemID, 3)
	require.NoError(t, err)
	require.Len(t, updated.PriceChangedItems(), 1)
	require.False(t, stack.cart.CheckoutReady())

	// Both the client gate and the server gate refuse the order.
	input := orders.PlaceOrderInput{
		Address: orders.ShippingAddress{
			FullName: "Ada Lovelace", Line1: "1 Analytical Way",
			City: "London", PostalCode: "E1 6AN", Country: "GB",
		},
		PaymentMethod: "card",
	}
	_, err = stack.orders.PlaceOrder(ctx, input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// Re-adding the product accepts the new price and reopens the gate.
	updated, err = stack.cart.Add(ctx, "prod-hoodie", 1, "L", "black")
	require.NoError(t, err)
	require.Empty(t, updated.PriceChangedItems())
	require.True(t, stack.cart.CheckoutReady())

	order, err := stack.orders.PlaceOrder(ctx, input)
	require.NoError(t, err)
	require.NotEmpty(t, order.OrderNumber)
	require.True(t, stack.cart.Cart().IsEmpty(), "checkout must clear the cart")

	tracked, err := stack.orders.Track(ctx, order.OrderNumber)
	require.NoError(t, err)
	require.Equal(t, "pending", tracked.Status)
}

func TestAuthFlowScopesCartToUser(t *testing.T) {
	stack := newStack(t)
	ctx := context.Background()

	user, err := stack.session.Register(ctx, session.RegisterInput{
		Name:     "Grace",
		Email:    "grace@example.com",
		Password: "correcthorse",
	})
	require.NoError(t, err)
	require.True(t, stack.session.Authenticated())
	require.Equal(t, "Grace", user.Name)

	_, err = stack.cart.Add(ctx, "prod-tee", 2, "M", "white")
	require.NoError(t, err)
	require.Equal(t, 2, stack.cart.ItemCount())

	stack.session.Logout(ctx)
	require.False(t, stack.session.Authenticated())
	require.Zero(t, stack.cart.ItemCount(), "logout must drop the local cart")

	// Logging back in reveals the server-side cart again.
	_, err = stack.session.Login(ctx, "grace@example.com", "correcthorse")
	require.NoError(t, err)
	require.Equal(t, 2, stack.cart.Load(ctx).ItemCount())

	_, err = stack.session.Login(ctx, "grace@example.com", "wrongpassword")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestWishlistRoundTrip(t *testing.T) {
	stack := newStack(t)
	ctx := context.Background()

	items, err := stack.wishlist.Add(ctx, "prod-hoodie")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, stack.wishlist.Count())

	_, err = stack.wishlist.Add(ctx, "prod-hoodie")
	require.NoError(t, err)
	require.Equal(t, 1, stack.wishlist.Count(), "wishlist adds are idempotent")

	items, err = stack.wishlist.Remove(ctx, "prod-hoodie")
	require.NoError(t, err)
	require.Empty(t, items)
}
