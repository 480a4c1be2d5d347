package snapshot

import (
	"context"
	"sync"

	"github.com/veloracommerce/storefront-client/pkg/types"
)

// MemoryStore keeps the snapshot in process memory. Used in tests and for
// sessions that should not outlive the process.
type MemoryStore struct {
	mu      sync.Mutex
	cart    types.Cart
	present bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Read(ctx context.Context) (types.Cart, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return types.EmptyCart(), false, nil
	}
	return m.cart, true, nil
}

func (m *MemoryStore) Write(ctx context.Context, cart types.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = cart
	m.present = true
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = types.EmptyCart()
	m.present = false
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
