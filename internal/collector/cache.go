package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"StockSheet/internal/model"
)

// BarStore is a byte-valued key/value store with expiry.
type BarStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedFetcher is a read-through cache in front of another Fetcher.
// Store failures are logged and the wrapped Fetcher is used. Only ranges that
// ended before the fetch are stored, so a series still receiving bars is
// always fetched fresh.
type CachedFetcher struct {
	Next  Fetcher
	Store BarStore
	TTL   time.Duration
}

func NewCachedFetcher(next Fetcher, store BarStore, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{Next: next, Store: store, TTL: ttl}
}

func (c *CachedFetcher) Name() string { return c.Next.Name() + "+cache" }

func (c *CachedFetcher) FetchBars(ctx context.Context, req model.BarRequest) ([]model.PriceBar, error) {
	key := c.key(req)
	data, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		log.Printf("[WARN] bar cache get %s: %v", key, err)
	}
	if ok {
		var bars []model.PriceBar
		if err := json.Unmarshal(data, &bars); err == nil {
			return bars, nil
		}
		log.Printf("[WARN] bar cache entry %s is corrupt, refetching", key)
	}

	fetchedAt := time.Now()
	bars, err := c.Next.FetchBars(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 || req.End.IsZero() || !req.End.Before(fetchedAt) {
		return bars, nil
	}
	data, err = json.Marshal(bars)
	if err != nil {
		return nil, fmt.Errorf("encode bars: %w", err)
	}
	if err := c.Store.Set(ctx, key, data, c.TTL); err != nil {
		log.Printf("[WARN] bar cache set %s: %v", key, err)
	}
	return bars, nil
}

func (c *CachedFetcher) key(req model.BarRequest) string {
	return fmt.Sprintf("stocksheet:bars:%s:%s:%s:%d:%d",
		c.Next.Name(), req.Symbol, req.Interval, req.Start.Unix(), req.End.Unix())
}

// RedisBarStore implements BarStore on Redis.
type RedisBarStore struct {
	client *redis.Client
}

// NewRedisBarStore connects and pings the server.
func NewRedisBarStore(ctx context.Context, addr, password string, db int) (*RedisBarStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[INFO] bar cache connected to redis %s", addr)
	return &RedisBarStore{client: client}, nil
}

func (s *RedisBarStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisBarStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisBarStore) Close() error { return s.client.Close() }
