package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-safety/decoy/internal/cache"
	"github.com/opensource-safety/decoy/internal/domain"
)

func TestLimiterEnforcesBudget(t *testing.T) {
	l := New(domain.ThrottleConfig{Enabled: true, MaxMessages: 3, WindowSecs: 60}, cache.NewLRUCache(100))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "room-1")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !ok {
			t.Fatalf("message %d should be allowed", i+1)
		}
	}

	ok, err := l.Allow(ctx, "room-1")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if ok {
		t.Error("fourth message should be throttled")
	}

	// Another room has its own budget.
	ok, _ = l.Allow(ctx, "room-2")
	if !ok {
		t.Error("other room should be unaffected")
	}
}

func TestLimiterWindowReset(t *testing.T) {
	l := New(domain.ThrottleConfig{Enabled: true, MaxMessages: 1, WindowSecs: 60}, cache.NewLRUCache(100))
	l.window = 10 * time.Millisecond
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "room-1"); !ok {
		t.Fatal("first message should pass")
	}
	if ok, _ := l.Allow(ctx, "room-1"); ok {
		t.Fatal("second message should be throttled")
	}

	time.Sleep(20 * time.Millisecond)
	if ok, _ := l.Allow(ctx, "room-1"); !ok {
		t.Error("expected budget reset after window")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := New(domain.ThrottleConfig{Enabled: false, MaxMessages: 1}, cache.NewLRUCache(100))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if ok, _ := l.Allow(ctx, "room-1"); !ok {
			t.Fatal("disabled limiter should always allow")
		}
	}
}
