package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/polytoolkit/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestTTL_ValidityWindow(t *testing.T) {
	clock := newClock()
	c := cache.New(cache.WithClock(clock.Now))

	c.Put("k", "v", 300*time.Second)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	clock.Advance(299 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok, "valid just before expiry")

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "expired exactly at insertedAt + ttl")
}

func TestTTL_Missing(t *testing.T) {
	c := cache.New()
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestTTL_PutOverwrites(t *testing.T) {
	clock := newClock()
	c := cache.New(cache.WithClock(clock.Now))

	c.Put("k", 1, time.Minute)
	clock.Advance(50 * time.Second)
	c.Put("k", 2, time.Minute)
	clock.Advance(50 * time.Second)

	v, ok := c.Get("k")
	require.True(t, ok, "second put restarts the window")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestTTL_Purge(t *testing.T) {
	clock := newClock()
	c := cache.New(cache.WithClock(clock.Now))

	c.Put("short", 1, time.Second)
	c.Put("long", 2, time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 2, c.Len(), "expired entries stay until purged")
	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c := cache.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			c.Put(key, i, time.Minute)
			if v, ok := c.Get(key); ok {
				_, isInt := v.(int)
				assert.True(t, isInt)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}
