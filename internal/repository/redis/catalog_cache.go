package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
)

const (
	catalogTTL        = 5 * time.Minute
	catalogVersionKey = "catalog:ver"
)

// CatalogCache caches pages of the active exercise catalog. The catalog is
// read-heavy and admin-written, so entries carry a short TTL and the whole
// namespace is invalidated on every admin write by bumping a version
// counter. Stale keys under old versions simply expire.
type CatalogCache struct {
	client *redis.Client
}

// NewCatalogCache creates a CatalogCache wrapping the given Redis client.
func NewCatalogCache(client *redis.Client) *CatalogCache {
	return &CatalogCache{client: client}
}

// GetPage returns the cached exercise page, or repository.ErrCacheMiss.
func (c *CatalogCache) GetPage(ctx context.Context, muscleGroup string, skip, limit int) ([]domain.Exercise, error) {
	key, err := c.pageKey(ctx, muscleGroup, skip, limit)
	if err != nil {
		return nil, err
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("catalog cache get: %w", err)
	}
	var exercises []domain.Exercise
	if err := json.Unmarshal(raw, &exercises); err != nil {
		return nil, fmt.Errorf("catalog cache decode: %w", err)
	}
	return exercises, nil
}

// SetPage stores an exercise page under the current catalog version.
func (c *CatalogCache) SetPage(ctx context.Context, muscleGroup string, skip, limit int, exercises []domain.Exercise) error {
	key, err := c.pageKey(ctx, muscleGroup, skip, limit)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(exercises)
	if err != nil {
		return fmt.Errorf("catalog cache encode: %w", err)
	}
	return c.client.Set(ctx, key, raw, catalogTTL).Err()
}

// Invalidate drops all cached catalog pages by bumping the version counter.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, catalogVersionKey).Err()
}

func (c *CatalogCache) pageKey(ctx context.Context, muscleGroup string, skip, limit int) (string, error) {
	ver, err := c.client.Get(ctx, catalogVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("catalog cache version: %w", err)
	}
	return fmt.Sprintf("catalog:%d:%s:%d:%d", ver, muscleGroup, skip, limit), nil
}
