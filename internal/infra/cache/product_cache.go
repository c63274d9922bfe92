// Package cache puts a redis read-through cache in front of the product
// catalog. Stock changes made through the decorator evict the cached entry;
// AdjustStock always goes to the underlying catalog, which stays the
// authority on whether stock may be taken.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ RedisClient = (*redis.Client)(nil)

type ProductCatalog struct {
	next  repository.ProductRepository
	rdb   RedisClient
	ttl   time.Duration
	log   *zap.Logger
	group singleflight.Group

	// gens counts evictions per product. A load only writes its snapshot
	// back when no eviction happened while it was reading.
	mu   sync.Mutex
	gens map[string]uint64
}

var _ repository.ProductRepository = (*ProductCatalog)(nil)

func NewProductCatalog(next repository.ProductRepository, rdb RedisClient, ttl time.Duration, log *zap.Logger) *ProductCatalog {
	return &ProductCatalog{next: next, rdb: rdb, ttl: ttl, log: log, gens: make(map[string]uint64)}
}

func Key(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

func (c *ProductCatalog) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if p, ok := c.get(ctx, id); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		if p, ok := c.get(ctx, id); ok {
			return p, nil
		}
		gen := c.generation(id)
		p, err := c.next.FindByID(ctx, id)
		if err != nil || p == nil {
			return p, err
		}
		c.setIfCurrent(ctx, p, gen)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	p, _ := v.(*domain.Product)
	return p.Clone(), nil
}

func (c *ProductCatalog) AdjustStock(ctx context.Context, id string, delta int) error {
	if err := c.next.AdjustStock(ctx, id, delta); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *ProductCatalog) Add(ctx context.Context, p *domain.Product) error {
	if err := c.next.Add(ctx, p); err != nil {
		return err
	}
	c.evict(ctx, p.ID)
	return nil
}

func (c *ProductCatalog) FindAll(ctx context.Context) ([]domain.Product, error) {
	return c.next.FindAll(ctx)
}

func (c *ProductCatalog) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return c.next.FindByCategory(ctx, category)
}

func (c *ProductCatalog) FindLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return c.next.FindLowStock(ctx, threshold)
}

// Warmup loads the given products into the cache.
func (c *ProductCatalog) Warmup(ctx context.Context, ids []string) error {
	for _, id := range ids {
		gen := c.generation(id)
		p, err := c.next.FindByID(ctx, id)
		if err != nil {
			c.log.Warn("cache warmup failed", zap.String("product_id", id), zap.Error(err))
			continue
		}
		if p != nil {
			c.setIfCurrent(ctx, p, gen)
		}
	}
	return nil
}

func (c *ProductCatalog) get(ctx context.Context, id string) (*domain.Product, bool) {
	b, err := c.rdb.Get(ctx, Key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("product cache read failed", zap.String("product_id", id), zap.Error(err))
		return nil, false
	}
	var p domain.Product
	if err := json.Unmarshal([]byte(b), &p); err != nil {
		c.log.Warn("product cache entry corrupt", zap.String("product_id", id), zap.Error(err))
		return nil, false
	}
	return &p, true
}

func (c *ProductCatalog) set(ctx context.Context, p *domain.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, Key(p.ID), data, c.ttl).Err(); err != nil {
		c.log.Warn("product cache write failed", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (c *ProductCatalog) generation(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[id]
}

// setIfCurrent writes p unless the product was evicted after gen was read.
// The write happens under mu so an eviction either bumps the generation
// first or deletes the entry afterwards.
func (c *ProductCatalog) setIfCurrent(ctx context.Context, p *domain.Product, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[p.ID] != gen {
		c.log.Debug("product cache write skipped, evicted during load", zap.String("product_id", p.ID))
		return
	}
	c.set(ctx, p)
}

func (c *ProductCatalog) evict(ctx context.Context, id string) {
	c.mu.Lock()
	c.gens[id]++
	c.mu.Unlock()
	if err := c.rdb.Del(ctx, Key(id)).Err(); err != nil {
		c.log.Warn("product cache evict failed", zap.String("product_id", id), zap.Error(err))
	}
}
