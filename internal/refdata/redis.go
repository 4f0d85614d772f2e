package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/icsr-triage-engine/internal/domain"
)

// negativeMarker is stored for cache misses so repeated lookups of unknown
// drugs skip the backend without being mistaken for entries.
const negativeMarker = "__none__"

// RedisProvider is a read-through Redis cache shared across triage instances.
// Redis failures fall through to the backend so the cache never makes
// lookups less available than the store behind it.
type RedisProvider struct {
	inner  domain.ReferenceProvider
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// RedisConfig configures the shared reference cache.
type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	TTL        time.Duration `mapstructure:"ttl"`
	PoolSize   int           `mapstructure:"pool_size"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// NewRedisProvider connects to Redis and layers it in front of inner.
func NewRedisProvider(inner domain.ReferenceProvider, cfg RedisConfig, logger *logrus.Logger) (*RedisProvider, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &RedisProvider{inner: inner, client: client, ttl: ttl, logger: logger}, nil
}

// Lookup implements domain.ReferenceProvider.
func (r *RedisProvider) Lookup(ctx context.Context, drugName string) (*domain.ReferenceEntry, error) {
	key := "refdata:" + normalizeKey(drugName)

	val, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if val == negativeMarker {
			return nil, domain.ErrNoEntry
		}
		entry := &domain.ReferenceEntry{}
		if err := json.Unmarshal([]byte(val), entry); err == nil {
			return entry, nil
		}
		// Corrupt cache value: fall through and repopulate.
	case err != redis.Nil:
		r.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Redis lookup failed, falling back to backend")
	}

	entry, err := r.inner.Lookup(ctx, drugName)
	if err != nil {
		if errors.Is(err, domain.ErrNoEntry) {
			r.set(ctx, key, negativeMarker)
		}
		return nil, err
	}

	if data, err := json.Marshal(entry); err == nil {
		r.set(ctx, key, string(data))
	}
	return entry, nil
}

func (r *RedisProvider) set(ctx context.Context, key, val string) {
	if err := r.client.Set(ctx, key, val, r.ttl).Err(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Failed to populate Redis cache")
	}
}

// Close releases the Redis connection.
func (r *RedisProvider) Close() error {
	return r.client.Close()
}
