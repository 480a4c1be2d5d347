package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/veloracommerce/storefront-client/pkg/config"
	"github.com/veloracommerce/storefront-client/pkg/redis"
	"github.com/veloracommerce/storefront-client/pkg/types"
)

type kvClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SnapshotKey(name string) string
	Close() error
}

// RedisStore persists the snapshot in redis. Intended for shared-terminal
// deployments (kiosks, point-of-sale) where local disk is not available.
type RedisStore struct {
	client kvClient
	ttl    time.Duration
}

func NewRedisStore(client kvClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func NewRedisStoreFromConfig(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap snapshot redis: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

func (r *RedisStore) Read(ctx context.Context) (types.Cart, bool, error) {
	raw, err := r.client.Get(ctx, r.client.SnapshotKey(Key))
	if errors.Is(err, redis.Nil) {
		return types.EmptyCart(), false, nil
	}
	if err != nil {
		return types.EmptyCart(), false, err
	}

	var cart types.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		_ = r.Clear(ctx)
		return types.EmptyCart(), false, nil
	}
	if cart.Items == nil {
		cart.Items = []types.CartItem{}
	}
	return cart, true, nil
}

func (r *RedisStore) Write(ctx context.Context, cart types.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.client.Set(ctx, r.client.SnapshotKey(Key), string(payload), r.ttl)
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.client.SnapshotKey(Key))
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
