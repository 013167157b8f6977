package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
)

var _ inventory.StockCache = (*StockCache)(nil)

const stockKeyPrefix = "inventory:stock:item:"

// StockCache stock actual por ítem, guardado como texto decimal con TTL.
type StockCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewStockCache construye la caché; ttl <= 0 = sin expiración.
func NewStockCache(client goredis.UniversalClient, ttl time.Duration) *StockCache {
	if ttl < 0 {
		ttl = 0
	}
	return &StockCache{client: client, ttl: ttl}
}

func (c *StockCache) Get(ctx context.Context, itemID string) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, stockKeyPrefix+itemID).Result()
	if errors.Is(err, goredis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("redis: get stock %s: %w", itemID, err)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		// valor corrupto: se descarta y se trata como ausente
		_ = c.client.Del(ctx, stockKeyPrefix+itemID).Err()
		return decimal.Zero, false, nil
	}
	return v, true, nil
}

func (c *StockCache) Set(ctx context.Context, itemID string, total decimal.Decimal) error {
	if err := c.client.Set(ctx, stockKeyPrefix+itemID, total.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set stock %s: %w", itemID, err)
	}
	return nil
}

func (c *StockCache) Evict(ctx context.Context, itemID string) error {
	if err := c.client.Del(ctx, stockKeyPrefix+itemID).Err(); err != nil {
		return fmt.Errorf("redis: evict stock %s: %w", itemID, err)
	}
	return nil
}
