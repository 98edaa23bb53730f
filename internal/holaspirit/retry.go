package holaspirit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultRetryBaseDelay = 200 * time.Millisecond
	defaultRetryMaxDelay  = 5 * time.Second

	// Holaspirit has been seen asking for minutes during maintenance; a tool
	// call should fail rather than hang that long.
	maxRetryAfter = 60 * time.Second
)

// retryPolicy is the per-client retry budget and schedule.
type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
}

func newRetryPolicy(cfg Config) retryPolicy {
	p := retryPolicy{
		attempts:  cfg.MaxRetries,
		baseDelay: cfg.RetryBaseDelay,
		maxDelay:  cfg.RetryMaxDelay,
	}
	if p.attempts < 1 {
		p.attempts = 1
	}
	if p.baseDelay <= 0 {
		p.baseDelay = defaultRetryBaseDelay
	}
	if p.maxDelay < p.baseDelay {
		p.maxDelay = max(p.baseDelay, defaultRetryMaxDelay)
	}
	return p
}

// schedule starts a fresh jittered exponential schedule for one request.
func (p retryPolicy) schedule() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.baseDelay
	b.MaxInterval = p.maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.25
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// retryable reports whether a Holaspirit answer is transient. 501 means the
// endpoint does not exist for this organization and never recovers.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// nextDelay prefers the server's Retry-After on throttling and maintenance
// answers and otherwise advances the schedule.
func nextDelay(resp *http.Response, sched backoff.BackOff, now time.Time) time.Duration {
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		if wait := parseRetryAfter(resp.Header.Get("Retry-After"), now); wait > 0 {
			return wait
		}
	}
	return sched.NextBackOff()
}

// parseRetryAfter accepts delta-seconds or an HTTP date and caps the result at
// maxRetryAfter. Anything unparseable or in the past yields zero.
func parseRetryAfter(raw string, now time.Time) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	var wait time.Duration
	if seconds, err := strconv.Atoi(raw); err == nil {
		wait = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(raw); err == nil {
		wait = at.Sub(now)
	}
	if wait <= 0 {
		return 0
	}
	return min(wait, maxRetryAfter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pacer keeps one client inside the organization's request quota. It is a
// GCRA scheduler: every request books the next free slot, and up to burst
// requests may run ahead of the steady rate. A nil pacer never waits.
type pacer struct {
	mu        sync.Mutex
	interval  time.Duration
	tolerance time.Duration
	next      time.Time
}

func newPacer(rps float64, burst int) *pacer {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	interval := time.Duration(float64(time.Second) / rps)
	return &pacer{
		interval:  interval,
		tolerance: interval * time.Duration(burst-1),
	}
}

// book reserves a slot and returns how long the caller must wait for it.
func (p *pacer) book(now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)
	return max(slot.Sub(now)-p.tolerance, 0)
}

func (p *pacer) wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if wait := p.book(time.Now()); wait > 0 {
		return sleepContext(ctx, wait)
	}
	return nil
}
