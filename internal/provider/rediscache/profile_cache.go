// Package rediscache decorates a ProfileStore with a read-through
// redis cache. Writes go to the inner store first, then invalidate the
// cached entry, so a stale read never outlives one TTL.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
)

const keyPrefix = "profile:"

// ProfileCache wraps an inner ProfileStore.
type ProfileCache struct {
	inner  provider.ProfileStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New builds the cache decorator.
func New(inner provider.ProfileStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *ProfileCache) Get(ctx context.Context, principalID string) (*domain.ProfileRecord, error) {
	key := keyPrefix + principalID
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var record domain.ProfileRecord
		if unmarshalErr := json.Unmarshal(payload, &record); unmarshalErr == nil {
			return &record, nil
		}
		// Corrupt entry: drop it and fall through to the inner store.
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("profile cache read failed", zap.Error(err))
	}

	record, err := c.inner.Get(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if payload, marshalErr := json.Marshal(record); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("profile cache write failed", zap.Error(setErr))
		}
	}
	return record, nil
}

func (c *ProfileCache) Upsert(ctx context.Context, principalID string, record *domain.ProfileRecord) error {
	if err := c.inner.Upsert(ctx, principalID, record); err != nil {
		return err
	}
	c.invalidate(ctx, principalID)
	return nil
}

func (c *ProfileCache) SetDeleted(ctx context.Context, principalID string) error {
	if err := c.inner.SetDeleted(ctx, principalID); err != nil {
		return err
	}
	c.invalidate(ctx, principalID)
	return nil
}

func (c *ProfileCache) invalidate(ctx context.Context, principalID string) {
	if err := c.client.Del(ctx, keyPrefix+principalID).Err(); err != nil {
		c.logger.Warn("profile cache invalidation failed",
			zap.String("principal_id", principalID), zap.Error(err))
	}
}
