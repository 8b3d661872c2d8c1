package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps entries under signal:{ticker} with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL, password string, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if password != "" {
		opt.Password = password
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "signal_cache")),
	}, nil
}

func (r *RedisStore) Put(ctx context.Context, entry *Entry) error {
	start := time.Now()

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}

	key := Key(entry.Ticker)
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	r.logger.Debug("signal cached",
		zap.String("key", key),
		zap.Float64("ttl_sec", r.ttl.Seconds()),
		zap.Int("size_bytes", len(payload)),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

func (r *RedisStore) Get(ctx context.Context, ticker string) (*Entry, error) {
	key := Key(ticker)

	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("signal not cached", zap.String("key", key))
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}
	return &entry, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
