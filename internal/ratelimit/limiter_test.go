package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewLimiterWithClock(clock.Now), clock
}

func TestCanMakeRequestCapsPerMinute(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{RequestsPerMinute: 3, RequestsPerHour: 100}

	for i := 0; i < 3; i++ {
		if !limiter.CanMakeRequest("openai", cfg) {
			t.Fatalf("request %d should be allowed", i)
		}
		limiter.RecordRequest("openai")
	}
	if limiter.CanMakeRequest("openai", cfg) {
		t.Fatalf("request beyond per-minute cap should be denied")
	}
}

func TestWindowElapsesAndCapacityReturns(t *testing.T) {
	limiter, clock := newTestLimiter()
	cfg := Config{RequestsPerMinute: 2, RequestsPerHour: 100}

	limiter.RecordRequest("openai")
	limiter.RecordRequest("openai")
	if limiter.CanMakeRequest("openai", cfg) {
		t.Fatalf("cap reached, expected denial")
	}

	clock.Advance(61 * time.Second)
	if !limiter.CanMakeRequest("openai", cfg) {
		t.Fatalf("window elapsed, expected capacity back")
	}
}

func TestHourlyCapHoldsAfterMinuteWindowClears(t *testing.T) {
	limiter, clock := newTestLimiter()
	cfg := Config{RequestsPerMinute: 10, RequestsPerHour: 2}

	limiter.RecordRequest("runway")
	limiter.RecordRequest("runway")
	clock.Advance(2 * time.Minute)
	if limiter.CanMakeRequest("runway", cfg) {
		t.Fatalf("hourly cap should still deny after minute window clears")
	}
	clock.Advance(time.Hour)
	if !limiter.CanMakeRequest("runway", cfg) {
		t.Fatalf("hourly window elapsed, expected capacity back")
	}
}

func TestProvidersAreIsolated(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{RequestsPerMinute: 1}

	limiter.RecordRequest("openai")
	if limiter.CanMakeRequest("openai", cfg) {
		t.Fatalf("openai should be capped")
	}
	if !limiter.CanMakeRequest("midjourney", cfg) {
		t.Fatalf("midjourney should be unaffected by openai traffic")
	}
}

func TestTryAcquireChecksAndRecordsAtomically(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{RequestsPerMinute: 2, RequestsPerHour: 100}

	if !limiter.TryAcquire("openai", cfg) {
		t.Fatalf("first acquire should succeed")
	}
	if !limiter.TryAcquire("openai", cfg) {
		t.Fatalf("second acquire should succeed")
	}
	if limiter.TryAcquire("openai", cfg) {
		t.Fatalf("third acquire should be denied")
	}
	// A denied acquire must not consume capacity.
	if got := limiter.NextAvailableTime("openai", cfg); got.IsZero() {
		t.Fatalf("next available time should be set")
	}
}

func TestNextAvailableTime(t *testing.T) {
	limiter, clock := newTestLimiter()
	cfg := Config{RequestsPerMinute: 1, RequestsPerHour: 100}

	if got := limiter.NextAvailableTime("openai", cfg); !got.Equal(clock.Now()) {
		t.Fatalf("under cap, next available = %v, want now %v", got, clock.Now())
	}

	first := clock.Now()
	limiter.RecordRequest("openai")
	clock.Advance(10 * time.Second)

	want := first.Add(time.Minute)
	if got := limiter.NextAvailableTime("openai", cfg); !got.Equal(want) {
		t.Fatalf("next available = %v, want %v", got, want)
	}
}
