package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/catalog-hub/catalog-service/internal/config"
	"github.com/catalog-hub/catalog-service/internal/events"
)

var errRedisNotConfigured = fmt.Errorf("redis %w", ErrNotConfigured)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An empty address leaves
// the client unset; readiness then reports redis as disabled.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; auth activity will only be logged")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// ActivityStream appends auth events to a capped Redis stream.
type ActivityStream struct {
	redis  *Redis
	stream string
	maxLen int64
}

// NewActivityStream returns nil when Redis is not configured.
func NewActivityStream(r *Redis, stream string, maxLen int64) *ActivityStream {
	if r == nil || r.Client == nil {
		return nil
	}
	return &ActivityStream{redis: r, stream: stream, maxLen: maxLen}
}

// Append writes one stream entry per event. The payload is stored as JSON.
func (s *ActivityStream) Append(ctx context.Context, event events.Event) error {
	if s == nil {
		return errRedisNotConfigured
	}

	payload := []byte("{}")
	if event.Payload != nil {
		encoded, err := json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", event.Type, err)
		}
		payload = encoded
	}

	return s.redis.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":        event.ID,
			"type":      string(event.Type),
			"user_id":   event.UserID,
			"timestamp": event.Timestamp.UTC().Format(time.RFC3339Nano),
			"payload":   string(payload),
		},
	}).Err()
}
