package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually-advanced Clock for deterministic interval tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAcquire_FirstCallDoesNotBlock(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock)

	start := clock.Now()
	l.Acquire("example.com", 2*time.Second)
	require.Equal(t, start, clock.Now())
}

func TestAcquire_SecondCallWaitsOutMinInterval(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock)

	l.Acquire("example.com", 2*time.Second)
	before := clock.Now()
	l.Acquire("example.com", 2*time.Second)
	after := clock.Now()

	assert.Equal(t, 2*time.Second, after.Sub(before))
}

func TestAcquire_DifferentDomainsDoNotInterfere(t *testing.T) {
	clock := newFakeClock()
	l := NewWithClock(clock)

	l.Acquire("a.example.com", 5*time.Second)
	before := clock.Now()
	l.Acquire("b.example.com", 5*time.Second)
	after := clock.Now()

	assert.Equal(t, before, after, "unrelated domain should not wait")
}

func TestAcquire_ConcurrentSameDomainSerialised(t *testing.T) {
	l := New()
	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var order []int

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			l.Acquire("shared.example.com", time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, order, n)
}

func TestJitter_WithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Jitter(100*time.Millisecond, 500*time.Millisecond)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 500*time.Millisecond)
	}
}

func TestJitter_DegenerateRange(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, Jitter(100*time.Millisecond, 100*time.Millisecond))
}
