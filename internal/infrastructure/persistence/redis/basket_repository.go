// Package redis provides the Redis-backed basket repository
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/internal/infrastructure/config"
	"github.com/spiceshelf/shelf/internal/ports/outbound"
)

// NewClient creates a go-redis client from configuration
func NewClient(cfg config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.Database,
		MaxRetries:  cfg.MaxRetries,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})
}

// BasketRepository stores basket snapshots as JSON strings with a TTL
type BasketRepository struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewBasketRepository creates a Redis basket repository
func NewBasketRepository(client goredis.UniversalClient, prefix string, ttl time.Duration, logger *zap.Logger) *BasketRepository {
	return &BasketRepository{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.Named("redis-baskets"),
	}
}

var _ outbound.BasketRepository = (*BasketRepository)(nil)

func (r *BasketRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

// Get retrieves a session's snapshot and refreshes its TTL, so a basket lives
// as long as its sliding session.
func (r *BasketRepository) Get(ctx context.Context, sessionID string) (spice.BasketSnapshot, error) {
	var snapshot spice.BasketSnapshot

	data, err := r.client.GetEx(ctx, r.key(sessionID), r.ttl).Bytes()
	if errors.Is(err, goredis.Nil) {
		return snapshot, outbound.ErrBasketNotFound
	}
	if err != nil {
		r.logger.Debug("Basket get failed", zap.String("session_id", sessionID), zap.Error(err))
		return snapshot, fmt.Errorf("redis get: %w", err)
	}

	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, fmt.Errorf("decode basket: %w", err)
	}
	return snapshot, nil
}

// Save stores a session's snapshot and refreshes its TTL
func (r *BasketRepository) Save(ctx context.Context, sessionID string, basket spice.BasketSnapshot) error {
	data, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("encode basket: %w", err)
	}

	if err := r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err(); err != nil {
		r.logger.Error("Basket save failed", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a session's snapshot
func (r *BasketRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		r.logger.Error("Basket delete failed", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
