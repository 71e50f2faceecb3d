package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/screening"
)

const verdictKeyPrefix = "pep:verdict:"

// NewRedisClient connects a go-redis client using the registry Redis
// configuration and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// CachedClassifier caches successful external verdicts in Redis so
// repeated screenings of the same subject do not burn provider calls.
// Cache failures never fail a screening; the lookup falls through to
// the wrapped classifier.
type CachedClassifier struct {
	inner  screening.ExternalClassifier
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCached wraps an external classifier with a Redis verdict cache.
func NewCached(inner screening.ExternalClassifier, client *redis.Client, cfg *config.RedisConfig, log *logger.Logger) *CachedClassifier {
	ttl := cfg.VerdictTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedClassifier{
		inner:  inner,
		client: client,
		ttl:    ttl,
		log:    log.Named("verdict-cache"),
	}
}

// Provider reports the wrapped classifier's provider name.
func (c *CachedClassifier) Provider() string {
	return c.inner.Provider()
}

// Classify returns a cached verdict when one exists, otherwise asks the
// wrapped classifier and stores its answer.
func (c *CachedClassifier) Classify(ctx context.Context, query domain.ScreeningQuery) (*domain.ExternalVerdict, error) {
	key := verdictKey(query)

	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var verdict domain.ExternalVerdict
		if err := json.Unmarshal(payload, &verdict); err == nil {
			c.log.Debug("verdict cache hit", logger.StringField("key", key))
			return &verdict, nil
		}
		// A corrupt entry is overwritten below.
	case !errors.Is(err, redis.Nil):
		c.log.Warn("verdict cache read failed", logger.ErrorField(err))
	}

	verdict, err := c.inner.Classify(ctx, query)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(verdict); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn("verdict cache write failed", logger.ErrorField(err))
		}
	}
	return verdict, nil
}

// verdictKey canonicalizes the query so spelling-equivalent lookups of
// the same subject share one cache entry.
func verdictKey(query domain.ScreeningQuery) string {
	dob := "-"
	if query.DateOfBirth != nil {
		dob = query.DateOfBirth.Format("2006-01-02")
	}
	return verdictKeyPrefix + screening.Normalize(query.Name) + "|" + dob + "|" + strings.ToLower(query.Nationality)
}
