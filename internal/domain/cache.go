package domain

import (
	"context"
	"time"
)

// Cache is the read-through cache contract. Decoy uses it for room scenario
// lookups (one per chat turn otherwise) and for the atomic counters backing
// the per-room message throttle.
type Cache interface {
	// Get retrieves a value. Returns nil, nil if the key is not present.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// GetScenario retrieves a cached room scenario.
	GetScenario(ctx context.Context, roomID string) (*Scenario, error)

	// SetScenario caches a room's scenario metadata.
	SetScenario(ctx context.Context, roomID string, s *Scenario, ttl time.Duration) error

	// IncrementCounter atomically increments a windowed counter and returns
	// the new value. Backs the per-room message throttle.
	IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string `yaml:"type" json:"type"`

	// Local LRU cache settings (Community tier)
	LocalMaxSize int `yaml:"localMaxSize" json:"localMaxSize"`
	LocalTTL     int `yaml:"localTtl" json:"localTtl"` // seconds

	// Redis settings (Pro tier)
	RedisAddr     string `yaml:"redisAddr" json:"redisAddr"`
	RedisPassword string `yaml:"redisPassword" json:"-"`
	RedisDB       int    `yaml:"redisDb" json:"redisDb"`

	// Two-phase settings
	EnableTwoPhase bool `yaml:"enableTwoPhase" json:"enableTwoPhase"`
}
