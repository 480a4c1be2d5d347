package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/veloracommerce/storefront-client/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type cartSnapshot struct {
	Key       string `gorm:"primaryKey;size:64"`
	Payload   []byte
	UpdatedAt time.Time
}

func (cartSnapshot) TableName() string {
	return "cart_snapshots"
}

// SQLiteStore persists the snapshot in a local sqlite file, so a cart
// survives process restarts on the same machine.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := db.AutoMigrate(&cartSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Read(ctx context.Context) (types.Cart, bool, error) {
	var row cartSnapshot
	err := s.db.WithContext(ctx).First(&row, "key = ?", Key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.EmptyCart(), false, nil
	}
	if err != nil {
		return types.EmptyCart(), false, err
	}

	var cart types.Cart
	if err := json.Unmarshal(row.Payload, &cart); err != nil {
		// Corrupt snapshot: discard rather than surface.
		_ = s.Clear(ctx)
		return types.EmptyCart(), false, nil
	}
	if cart.Items == nil {
		cart.Items = []types.CartItem{}
	}
	return cart, true, nil
}

func (s *SQLiteStore) Write(ctx context.Context, cart types.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	row := cartSnapshot{Key: Key, Payload: payload, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Delete(&cartSnapshot{}, "key = ?", Key).Error
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
