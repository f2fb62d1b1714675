// Package ratelimit implements a sliding-window rate limiter for outbound
// Whoop API requests. All four concurrent sync streams share one Limiter so
// the window sees the true aggregate request rate.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// wakeBuffer pads each computed wait so the oldest timestamp has actually
// left the window when the caller re-checks.
const wakeBuffer = 100 * time.Millisecond

// Limiter admits at most maxRequests requests within any trailing window.
// Admit delays callers instead of rejecting them.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	requests    []time.Time
}

// Stats is a point-in-time snapshot of limiter state.
type Stats struct {
	RequestsInWindow int
	MaxRequests      int
	WindowSeconds    float64
	AvailableSlots   int
	UtilizationPct   float64
}

// New creates a Limiter allowing maxPerMinute requests per trailing
// 60-second window, scaled down by safetyMargin (e.g. 0.9 keeps headroom
// against clock skew and concurrent processes). The effective max is always
// at least 1.
func New(maxPerMinute int, safetyMargin float64) *Limiter {
	max := int(float64(maxPerMinute) * safetyMargin)
	if max < 1 {
		max = 1
	}

	slog.Info("rate limiter initialized",
		"max_requests", max,
		"window_seconds", 60,
		"safety_margin", safetyMargin,
	)

	return &Limiter{
		maxRequests: max,
		window:      time.Minute,
	}
}

// Admit blocks until issuing one more request would not exceed the window
// limit, records the request, and returns. The only error it can return is
// the context's, when the caller is canceled while parked.
func (l *Limiter) Admit(ctx context.Context) error {
	l.mu.Lock()

	for {
		now := time.Now()
		l.prune(now)

		if len(l.requests) < l.maxRequests {
			break
		}

		// Oldest in-window request determines when a slot frees.
		wait := l.requests[0].Add(l.window).Sub(now) + wakeBuffer

		slog.Warn("rate limit reached, waiting",
			"wait", wait.Round(time.Millisecond),
			"requests_in_window", len(l.requests),
			"max_requests", l.maxRequests,
		)

		// Release the lock while parked so other admits are not serialized
		// behind this caller's sleep, then reacquire and re-check: a
		// concurrent admit may have taken the freed slot.
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		l.mu.Lock()
	}

	l.requests = append(l.requests, time.Now())
	inWindow := len(l.requests)
	l.mu.Unlock()

	slog.Debug("rate limit admitted",
		"requests_in_window", inWindow,
		"max_requests", l.maxRequests,
	)

	return nil
}

// Stats returns current limiter statistics, pruning expired timestamps as a
// side effect.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(time.Now())

	return Stats{
		RequestsInWindow: len(l.requests),
		MaxRequests:      l.maxRequests,
		WindowSeconds:    l.window.Seconds(),
		AvailableSlots:   l.maxRequests - len(l.requests),
		UtilizationPct:   float64(len(l.requests)) / float64(l.maxRequests) * 100,
	}
}

// Reset clears all tracked requests. Test and operations utility only.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests = l.requests[:0]
	slog.Info("rate limiter reset")
}

// prune drops timestamps older than the trailing window. Callers must hold
// the mutex.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)

	i := 0
	for i < len(l.requests) && l.requests[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.requests = append(l.requests[:0], l.requests[i:]...)
	}
}
