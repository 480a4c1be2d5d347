package snapshot

import (
	"context"
	"fmt"

	"github.com/veloracommerce/storefront-client/pkg/config"
	"github.com/veloracommerce/storefront-client/pkg/logger"
	"github.com/veloracommerce/storefront-client/pkg/types"
)

// Key is the fixed key the persisted cart snapshot lives under.
const Key = "cart"

// Store is a best-effort read-through cache for the last known cart. The
// snapshot is advisory display state: read once at startup, overwritten
// whole after every successful server round-trip, never merged and never
// sent back to the server.
type Store interface {
	// Read returns the persisted cart and whether one was found. A corrupt
	// snapshot is discarded and reported as a miss, not an error.
	Read(ctx context.Context) (types.Cart, bool, error)
	// Write replaces the persisted snapshot with the given cart.
	Write(ctx context.Context, cart types.Cart) error
	// Clear removes the persisted snapshot.
	Clear(ctx context.Context) error
	Close() error
}

// New builds the snapshot store selected by configuration.
func New(ctx context.Context, cfg config.SnapshotConfig, redisCfg config.RedisConfig, logg *logger.Logger) (Store, error) {
	switch cfg.Backend {
	case config.SnapshotBackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case config.SnapshotBackendRedis:
		return NewRedisStoreFromConfig(ctx, redisCfg, cfg.TTL)
	case config.SnapshotBackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
}
