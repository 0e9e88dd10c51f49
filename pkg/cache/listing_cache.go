package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListingCache is a read-through cache for listing detail. A miss returns
// (nil, nil).
type ListingCache interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ListingWithHost, error)
	GetBySlug(ctx context.Context, slug string) (*entity.ListingWithHost, error)
	Set(ctx context.Context, listing *entity.ListingWithHost) error
	Invalidate(ctx context.Context, listing *entity.Listing) error
}

// New returns a Redis cache when an address is configured, otherwise a
// cache that never hits.
func New(config utils.RedisConfig, log *zap.Logger) (ListingCache, func() error) {
	if config.Addr == "" {
		return NoopCache{}, func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return NewRedisCache(client, config.ListingTTL, log), client.Close
}

type RedisCache struct {
	cli *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisCache(cli *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{
		cli: cli,
		ttl: ttl,
		log: log.With(zap.String("component", "listing_cache")),
	}
}

func idKey(id uuid.UUID) string {
	return "listing:id:" + id.String()
}

func slugKey(slug string) string {
	return "listing:slug:" + slug
}

func (c *RedisCache) GetByID(ctx context.Context, id uuid.UUID) (*entity.ListingWithHost, error) {
	return c.get(ctx, idKey(id))
}

func (c *RedisCache) GetBySlug(ctx context.Context, slug string) (*entity.ListingWithHost, error) {
	return c.get(ctx, slugKey(slug))
}

func (c *RedisCache) get(ctx context.Context, key string) (*entity.ListingWithHost, error) {
	raw, err := c.cli.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.log.Warn("Cache read failed", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}

	var listing entity.ListingWithHost
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("decode cached listing %s: %w", key, err)
	}
	return &listing, nil
}

func (c *RedisCache) Set(ctx context.Context, listing *entity.ListingWithHost) error {
	raw, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("encode listing %s: %w", listing.ID, err)
	}

	pipe := c.cli.TxPipeline()
	pipe.Set(ctx, idKey(listing.ID), raw, c.ttl)
	pipe.Set(ctx, slugKey(listing.Slug), raw, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("Cache write failed", zap.Error(err), zap.String("listing_id", listing.ID.String()))
		return fmt.Errorf("cache set listing %s: %w", listing.ID, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, listing *entity.Listing) error {
	if err := c.cli.Del(ctx, idKey(listing.ID), slugKey(listing.Slug)).Err(); err != nil {
		c.log.Warn("Cache invalidate failed", zap.Error(err), zap.String("listing_id", listing.ID.String()))
		return fmt.Errorf("cache invalidate listing %s: %w", listing.ID, err)
	}
	return nil
}

type NoopCache struct{}

func (NoopCache) GetByID(context.Context, uuid.UUID) (*entity.ListingWithHost, error) {
	return nil, nil
}

func (NoopCache) GetBySlug(context.Context, string) (*entity.ListingWithHost, error) {
	return nil, nil
}

func (NoopCache) Set(context.Context, *entity.ListingWithHost) error { return nil }

func (NoopCache) Invalidate(context.Context, *entity.Listing) error { return nil }
