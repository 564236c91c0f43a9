package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zvrva/railbooking/config"
	"github.com/zvrva/railbooking/internal/domain"
)

// RedisCache is a read cache for catalog data. Inventory counters are
// never cached here; the ledger always reads them under its row lock.
type RedisCache struct {
	client   *redis.Client
	tripsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, tripsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		tripsTTL: tripsTTL,
	}
}

func (c *RedisCache) GetTrips(ctx context.Context, filterKey string) ([]domain.Trip, error) {
	data, err := c.client.Get(ctx, tripsKey(filterKey)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var trips []domain.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

func (c *RedisCache) SetTrips(ctx context.Context, filterKey string, trips []domain.Trip) error {
	payload, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tripsKey(filterKey), payload, c.tripsTTL).Err()
}

// InvalidateTrips drops every cached trip search result. Called after
// admin catalog writes.
func (c *RedisCache) InvalidateTrips(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, tripsKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func tripsKey(filterKey string) string {
	return fmt.Sprintf("cache:trips:%s", filterKey)
}
