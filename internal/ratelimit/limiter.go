// Package ratelimit implements the per-provider sliding-window limiter used
// by the provider fallback chain. Unlike a token bucket it answers both "may
// I call now" and "when does capacity return", which the chain needs to skip
// saturated providers without failing the request.
package ratelimit

import (
	"sync"
	"time"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Config caps the number of calls a provider accepts per trailing window.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
}

type windows struct {
	minute []time.Time
	hour   []time.Time
}

// Limiter tracks request timestamps per provider across two trailing windows.
// All methods are safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	now     func() time.Time
	tracked map[string]*windows
}

// NewLimiter constructs an empty limiter.
func NewLimiter() *Limiter {
	return &Limiter{
		now:     time.Now,
		tracked: make(map[string]*windows),
	}
}

// NewLimiterWithClock constructs a limiter with an injected clock for tests.
func NewLimiterWithClock(now func() time.Time) *Limiter {
	l := NewLimiter()
	l.now = now
	return l
}

func (l *Limiter) windowsFor(provider string) *windows {
	w, ok := l.tracked[provider]
	if !ok {
		w = &windows{}
		l.tracked[provider] = w
	}
	return w
}

func prune(entries []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(entries) && !entries[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return entries
	}
	return append(entries[:0], entries[idx:]...)
}

func (l *Limiter) pruneLocked(w *windows, now time.Time) {
	w.minute = prune(w.minute, now.Add(-minuteWindow))
	w.hour = prune(w.hour, now.Add(-hourWindow))
}

func underCap(w *windows, cfg Config) bool {
	if cfg.RequestsPerMinute > 0 && len(w.minute) >= cfg.RequestsPerMinute {
		return false
	}
	if cfg.RequestsPerHour > 0 && len(w.hour) >= cfg.RequestsPerHour {
		return false
	}
	return true
}

// CanMakeRequest reports whether both windows are under their caps. Read
// only; it never mutates beyond lazy pruning.
func (l *Limiter) CanMakeRequest(provider string, cfg Config) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowsFor(provider)
	l.pruneLocked(w, l.now())
	return underCap(w, cfg)
}

// RecordRequest appends the current timestamp unconditionally. The contract
// is advisory: callers are expected to check first, or use TryAcquire.
func (l *Limiter) RecordRequest(provider string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowsFor(provider)
	now := l.now()
	l.pruneLocked(w, now)
	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
}

// TryAcquire checks both windows and records the request under a single lock
// hold, closing the check-then-record race of the two-step API.
func (l *Limiter) TryAcquire(provider string, cfg Config) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowsFor(provider)
	now := l.now()
	l.pruneLocked(w, now)
	if !underCap(w, cfg) {
		return false
	}
	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	return true
}

// NextAvailableTime returns now when the provider is under cap, otherwise the
// instant the oldest in-window request expires.
func (l *Limiter) NextAvailableTime(provider string, cfg Config) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowsFor(provider)
	now := l.now()
	l.pruneLocked(w, now)
	if underCap(w, cfg) {
		return now
	}
	next := now
	if cfg.RequestsPerMinute > 0 && len(w.minute) >= cfg.RequestsPerMinute {
		if t := w.minute[0].Add(minuteWindow); t.After(next) {
			next = t
		}
	}
	if cfg.RequestsPerHour > 0 && len(w.hour) >= cfg.RequestsPerHour {
		if t := w.hour[0].Add(hourWindow); t.After(next) {
			next = t
		}
	}
	return next
}
