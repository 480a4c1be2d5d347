package cart

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veloracommerce/storefront-client/internal/snapshot"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/logger"
	"github.com/veloracommerce/storefront-client/pkg/metrics"
	"github.com/veloracommerce/storefront-client/pkg/types"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

const (
	opLoad           = "load"
	opAdd            = "add"
	opUpdateQuantity = "update_quantity"
	opRemoveItem     = "remove_item"
	opApplyCoupon    = "apply_coupon"
	opClear          = "clear"
)

// Transport is the slice of the REST client the store depends on.
type Transport interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
	Put(ctx context.Context, path string, body any) ([]byte, error)
	Delete(ctx context.Context, path string) ([]byte, error)
}

// Store is the single point of truth for the user's cart on the client. It
// mediates between a persisted local snapshot and the server-authoritative
// cart: every mutation is a request/response round-trip, and the displayed
// state is always either the last successful server response or the empty
// cart. Overlapping operations are rejected by a compare-and-swap guard
// rather than queued, so at most one round-trip is in flight at a time.
type Store struct {
	transport Transport
	snapshots snapshot.Store
	logg      *logger.Logger
	metrics   *metrics.CartOpMetrics

	busy   atomic.Bool
	loaded atomic.Bool

	mu      sync.RWMutex
	cart    types.Cart
	subs    map[int]chan types.Cart
	nextSub int
}

// StoreParams bundles the collaborators required to build a Store.
type StoreParams struct {
	Transport Transport
	Snapshots snapshot.Store
	Logger    *logger.Logger
	Metrics   *metrics.CartOpMetrics
}

// NewStore builds the cart store and primes it from the persisted snapshot.
// The snapshot is advisory display state only; the first successful Load
// overwrites it with the server cart.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Transport == nil {
		return nil, fmt.Errorf("cart transport required")
	}
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	s := &Store{
		transport: params.Transport,
		snapshots: params.Snapshots,
		logg:      params.Logger,
		metrics:   params.Metrics,
		cart:      types.EmptyCart(),
		subs:      map[int]chan types.Cart{},
	}

	cached, found, err := s.snapshots.Read(ctx)
	if err != nil {
		s.logg.Warn(ctx, "cart snapshot unreadable, starting empty")
	} else if found {
		s.cart = cached
	}
	return s, nil
}

// Cart returns the currently displayed cart. Callers must treat the result
// as read-only; only the store mutates cart state.
func (s *Store) Cart() types.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// Busy reports whether an operation is currently in flight. The UI uses
// this to disable mutation controls.
func (s *Store) Busy() bool {
	return s.busy.Load()
}

// Loaded reports whether a server load has completed for this session.
func (s *Store) Loaded() bool {
	return s.loaded.Load()
}

// ItemCount sums the quantities across the displayed cart.
func (s *Store) ItemCount() int {
	return s.Cart().ItemCount()
}

// CheckoutReady reports whether checkout may proceed. Any line flagged by
// the server as price-changed is a hard gate, as is an empty cart.
func (s *Store) CheckoutReady() bool {
	return s.Cart().CheckoutReady()
}

// Subscribe registers an observer for cart updates. The channel carries the
// latest cart after every state transition; a slow consumer only ever loses
// intermediate states, never the newest one. The returned cancel function
// releases the subscription.
func (s *Store) Subscribe() (<-chan types.Cart, func()) {
	ch := make(chan types.Cart, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// Load fetches the server cart and replaces local state. Failures are
// swallowed: an empty cart is always a legitimate state to show a guest or
// a freshly loaded page, so the caller gets the safe default instead of an
// error. Calling Load while a load is outstanding, or after one completed,
// is a no-op; rapid navigation never produces duplicate fetches.
func (s *Store) Load(ctx context.Context) types.Cart {
	if s.loaded.Load() {
		return s.Cart()
	}
	if !s.busy.CompareAndSwap(false, true) {
		return s.Cart()
	}
	defer s.busy.Store(false)
	if s.loaded.Load() {
		return s.Cart()
	}

	ctx = s.logg.WithOperation(ctx, opLoad)
	started := time.Now()

	body, err := s.transport.Get(ctx, "/cart")
	if err != nil {
		// Best-effort load: fall back to the empty cart and carry on.
		s.logg.Warn(ctx, "cart load failed, showing empty cart")
		s.metrics.IncFailure(opLoad)
		s.setCart(ctx, types.EmptyCart())
		s.loaded.Store(true)
		return s.Cart()
	}

	cart := types.NormalizeCart(body)
	s.setCart(ctx, cart)
	s.loaded.Store(true)
	s.metrics.IncSuccess(opLoad)
	s.metrics.ObserveDuration(opLoad, time.Since(started))
	return cart
}

type addPayload struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Add puts a product variant into the cart and returns the updated server
// cart. Server-side rejections (out of stock, not logged in) are propagated
// for the UI to display.
func (s *Store) Add(ctx context.Context, productID string, quantity int, size, color string) (types.Cart, error) {
	payload := addPayload{
		ProductID: validators.SanitizeString(productID, 0),
		Quantity:  quantity,
		Size:      validators.SanitizeString(size, 0),
		Color:     validators.SanitizeString(color, 0),
	}
	if err := validators.Struct(payload); err != nil {
		return s.Cart(), err
	}

	ctx = s.logg.WithProductID(ctx, payload.ProductID)
	return s.mutate(ctx, opAdd, func(ctx context.Context) ([]byte, error) {
		return s.transport.Post(ctx, "/cart/add", payload)
	})
}

type updateQuantityPayload struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantity sets the quantity for a cart line. Quantities below one
// are rejected before any network call; removal is a distinct operation.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) (types.Cart, error) {
	itemID = validators.SanitizeString(itemID, 0)
	if itemID == "" {
		return s.Cart(), pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	payload := updateQuantityPayload{Quantity: quantity}
	if err := validators.Struct(payload); err != nil {
		return s.Cart(), err
	}

	ctx = s.logg.WithCartItemID(ctx, itemID)
	return s.mutate(ctx, opUpdateQuantity, func(ctx context.Context) ([]byte, error) {
		return s.transport.Put(ctx, "/cart/"+url.PathEscape(itemID), payload)
	})
}

// RemoveItem deletes a cart line by its server-assigned id.
func (s *Store) RemoveItem(ctx context.Context, itemID string) (types.Cart, error) {
	itemID = validators.SanitizeString(itemID, 0)
	if itemID == "" {
		return s.Cart(), pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	ctx = s.logg.WithCartItemID(ctx, itemID)
	return s.mutate(ctx, opRemoveItem, func(ctx context.Context) ([]byte, error) {
		return s.transport.Delete(ctx, "/cart/"+url.PathEscape(itemID))
	})
}

type couponPayload struct {
	Code string `json:"code" validate:"required"`
}

// ApplyCoupon submits a coupon code. Discount and total are recomputed
// server-side; validation failures (invalid or expired code) are propagated
// verbatim for the UI to display.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (types.Cart, error) {
	payload := couponPayload{Code: validators.SanitizeString(code, 64)}
	if err := validators.Struct(payload); err != nil {
		return s.Cart(), err
	}

	return s.mutate(ctx, opApplyCoupon, func(ctx context.Context) ([]byte, error) {
		return s.transport.Post(ctx, "/cart/coupon", payload)
	})
}

// Clear requests a server-side cart clear and resets local state to empty
// regardless of the outcome: an empty cart is always safe to show, and the
// next Load reconciles with the server if the remote clear did not land.
func (s *Store) Clear(ctx context.Context) types.Cart {
	if !s.busy.CompareAndSwap(false, true) {
		return s.Cart()
	}
	defer s.busy.Store(false)

	ctx = s.logg.WithOperation(ctx, opClear)
	if _, err := s.transport.Delete(ctx, "/cart"); err != nil {
		s.logg.Warn(ctx, "server cart clear failed, resetting locally anyway")
		s.metrics.IncFailure(opClear)
	} else {
		s.metrics.IncSuccess(opClear)
	}

	s.mu.Lock()
	s.cart = types.EmptyCart()
	subs := s.snapshotSubs()
	cart := s.cart
	s.mu.Unlock()

	s.loaded.Store(false)
	if err := s.snapshots.Clear(ctx); err != nil {
		s.logg.Warn(ctx, "failed to clear cart snapshot")
	}
	notify(subs, cart)
	return cart
}

// Reset drops local cart state without a server round-trip. Used on logout,
// where the backend invalidates the session cart on its own.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	s.cart = types.EmptyCart()
	subs := s.snapshotSubs()
	cart := s.cart
	s.mu.Unlock()

	s.loaded.Store(false)
	if err := s.snapshots.Clear(ctx); err != nil {
		s.logg.Warn(ctx, "failed to clear cart snapshot")
	}
	notify(subs, cart)
}

// mutate runs one network-backed cart mutation under the in-flight guard.
// Either the new authoritative cart is installed, or the error is returned
// with no local state change; the guard is released on every path.
func (s *Store) mutate(ctx context.Context, op string, call func(ctx context.Context) ([]byte, error)) (types.Cart, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.IncRejected(op)
		return s.Cart(), pkgerrors.New(pkgerrors.CodeBusy, "another cart operation is in flight")
	}
	defer s.busy.Store(false)

	ctx = s.logg.WithOperation(ctx, op)
	started := time.Now()

	body, err := call(ctx)
	if err != nil {
		s.metrics.IncFailure(op)
		s.logg.Warn(ctx, "cart mutation failed")
		return s.Cart(), err
	}

	cart := types.NormalizeCart(body)
	s.setCart(ctx, cart)
	s.loaded.Store(true)
	s.metrics.IncSuccess(op)
	s.metrics.ObserveDuration(op, time.Since(started))
	return cart, nil
}

// setCart installs the new authoritative cart, persists the snapshot, and
// notifies subscribers. Snapshot write failures are logged and swallowed;
// the snapshot is advisory only.
func (s *Store) setCart(ctx context.Context, cart types.Cart) {
	if cart.Items == nil {
		cart.Items = []types.CartItem{}
	}

	s.mu.Lock()
	s.cart = cart
	subs := s.snapshotSubs()
	s.mu.Unlock()

	if err := s.snapshots.Write(ctx, cart); err != nil {
		s.logg.Warn(ctx, "failed to persist cart snapshot")
	}
	notify(subs, cart)
}

// snapshotSubs copies the subscriber set; callers must hold s.mu.
func (s *Store) snapshotSubs() []chan types.Cart {
	subs := make([]chan types.Cart, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	return subs
}

// notify pushes the latest cart to each subscriber, displacing a stale
// undelivered update rather than blocking.
func notify(subs []chan types.Cart, cart types.Cart) {
	for _, ch := range subs {
		select {
		case ch <- cart:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- cart:
			default:
			}
		}
	}
}

// ErrBusy reports whether the error is the in-flight guard rejection.
func ErrBusy(err error) bool {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return typed.Code() == pkgerrors.CodeBusy
	}
	return false
}
