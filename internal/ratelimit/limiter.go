// Package ratelimit implements per-key admission control with a sliding
// fixed window: the counter resets one second after the first request of
// each window rather than draining continuously. State is in-memory and
// process-local.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

const (
	window        = time.Second
	sweepInterval = time.Minute
	idleTTL       = 5 * time.Minute
)

// RejectionError is returned when a request exceeds the burst ceiling.
// Limit is the configured per-second rate for header reporting; RetryAfter
// is whole seconds until the window resets.
type RejectionError struct {
	Limit      int
	Remaining  int
	RetryAfter int
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("rate limit exceeded: limit %d/s, retry after %ds", e.Limit, e.RetryAfter)
}

// Status is a read-only snapshot of a key's window. Limit here is the burst
// ceiling, the value actually enforced.
type Status struct {
	Limit       int
	Remaining   int
	ResetInSecs int
}

type bucket struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
}

// Limiter tracks one bucket per key hash. Buckets for different keys never
// contend; requests for the same key serialize only around the counter
// update. Construct with New and pass by shared reference through
// application state.
type Limiter struct {
	buckets sync.Map // key hash -> *bucket
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

// New creates a Limiter and starts its background sweep, which drops buckets
// idle longer than five minutes. Call Close on shutdown.
func New() *Limiter {
	l := &Limiter{
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow performs the atomic check-and-consume for keyHash. burst is the hard
// ceiling per one-second window; ratePerSecond is reported on rejection. A
// nil return means the request is admitted and one slot has been consumed.
func (l *Limiter) Allow(keyHash string, ratePerSecond, burst int) error {
	b := l.bucket(keyHash)
	now := l.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.windowStart) > window {
		b.count = 0
		b.windowStart = now
	}

	if b.count >= burst {
		retryAfter := window - now.Sub(b.windowStart)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return &RejectionError{
			Limit:      ratePerSecond,
			Remaining:  0,
			RetryAfter: int(retryAfter.Seconds()),
		}
	}

	b.count++
	return nil
}

// Status reports the key's current window without consuming a slot. A key
// with no bucket, or whose window has expired, reports the full burst
// remaining and an immediate reset.
func (l *Limiter) Status(keyHash string, ratePerSecond, burst int) Status {
	v, ok := l.buckets.Load(keyHash)
	if !ok {
		return Status{Limit: burst, Remaining: burst, ResetInSecs: 0}
	}
	b := v.(*bucket)
	now := l.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.windowStart) > window {
		return Status{Limit: burst, Remaining: burst, ResetInSecs: 0}
	}

	remaining := burst - b.count
	if remaining < 0 {
		remaining = 0
	}
	reset := window - now.Sub(b.windowStart)
	if reset < 0 {
		reset = 0
	}
	return Status{Limit: burst, Remaining: remaining, ResetInSecs: int(reset.Seconds())}
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	l.stopped.Do(func() { close(l.stop) })
}

func (l *Limiter) bucket(keyHash string) *bucket {
	if v, ok := l.buckets.Load(keyHash); ok {
		return v.(*bucket)
	}
	v, _ := l.buckets.LoadOrStore(keyHash, &bucket{windowStart: l.now()})
	return v.(*bucket)
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep drops buckets idle longer than the TTL. It races benignly with
// request traffic: an idle bucket evicted here is recreated fresh on the
// key's next request.
func (l *Limiter) sweep() {
	now := l.now()
	l.buckets.Range(func(key, v any) bool {
		b := v.(*bucket)
		b.mu.Lock()
		idle := now.Sub(b.windowStart) >= idleTTL
		b.mu.Unlock()
		if idle {
			l.buckets.Delete(key)
		}
		return true
	})
}
