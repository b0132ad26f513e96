// Package throttle rate-limits user messages per room using the cache's
// windowed counters.
package throttle

import (
	"context"
	"time"

	"github.com/opensource-safety/decoy/internal/domain"
)

// Limiter enforces a per-room message budget over a sliding window.
type Limiter struct {
	cache   domain.Cache
	enabled bool
	max     int64
	window  time.Duration
}

// New creates a limiter backed by the given cache.
func New(cfg domain.ThrottleConfig, cache domain.Cache) *Limiter {
	max := int64(cfg.MaxMessages)
	if max <= 0 {
		max = 30
	}
	window := time.Duration(cfg.WindowSecs) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		cache:   cache,
		enabled: cfg.Enabled,
		max:     max,
		window:  window,
	}
}

// Allow consumes one slot for the room. A cache failure fails open so a
// degraded cache never blocks the conversation.
func (l *Limiter) Allow(ctx context.Context, roomID string) (bool, error) {
	if !l.enabled {
		return true, nil
	}

	count, err := l.cache.IncrementCounter(ctx, "room:"+roomID, l.window)
	if err != nil {
		return true, err
	}
	return count <= l.max, nil
}
