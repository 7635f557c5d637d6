// Package ratelimit provides a per-domain minimum-interval gate for polite,
// rate-limited outbound HTTP scraping. One gate serialises all acquires for
// a given domain; unrelated domains proceed independently.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// Clock abstracts time so tests can run without real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the production Clock backed by the real wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks the calling goroutine for d.
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// domainState tracks the last acquire time for one domain, guarded by its
// own mutex so unrelated domains never contend on a shared lock.
type domainState struct {
	mu       sync.Mutex
	lastCall time.Time
}

// Limiter is a thread-safe per-domain minimum-interval gate. The zero value
// is not usable; construct with New.
type Limiter struct {
	mu      sync.Mutex
	domains map[string]*domainState
	clock   Clock
}

// New creates a Limiter using the system clock.
func New() *Limiter {
	return NewWithClock(SystemClock{})
}

// NewWithClock creates a Limiter using the given Clock, for deterministic
// tests.
func NewWithClock(clock Clock) *Limiter {
	return &Limiter{
		domains: make(map[string]*domainState),
		clock:   clock,
	}
}

// getState returns the domainState for domain, creating it under a
// double-checked lock if this is the first acquire for that domain.
func (l *Limiter) getState(domain string) *domainState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.domains[domain]
	if !ok {
		st = &domainState{}
		l.domains[domain] = st
	}
	return st
}

// Acquire blocks until at least minInterval has elapsed since the last
// acquire for domain, then records the new acquire time. Concurrent
// acquires for the same domain are serialised by the domain's own mutex;
// different domains proceed in parallel.
func (l *Limiter) Acquire(domain string, minInterval time.Duration) {
	st := l.getState(domain)
	st.mu.Lock()
	defer st.mu.Unlock()

	now := l.clock.Now()
	if !st.lastCall.IsZero() {
		elapsed := now.Sub(st.lastCall)
		if elapsed < minInterval {
			l.clock.Sleep(minInterval - elapsed)
			now = l.clock.Now()
		}
	}
	st.lastCall = now
}

// Jitter returns a uniform random duration in [min, max), used by the
// fetcher to blur request pacing after a rate-limiter release.
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// Reset clears all tracked domain state. Used by tests.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.domains = make(map[string]*domainState)
}
