package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCacheExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	var evicted []string
	c := NewLRUCache(10, time.Hour,
		WithClock[int](clock.Now),
		WithEvictHook(func(key string, _ int, reason EvictReason) {
			evicted = append(evicted, key+":"+reason.String())
		}))

	c.Set("a", 1)
	clock.Advance(59 * time.Minute)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, []string{"a:expired"}, evicted)
}

func TestLRUCacheSetRefreshesTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := NewLRUCache(10, time.Hour, WithClock[string](clock.Now))

	c.Set("a", "x")
	clock.Advance(50 * time.Minute)
	c.Set("a", "y")
	clock.Advance(50 * time.Minute)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewLRUCache(2, time.Hour, WithEvictHook(func(key string, _ int, reason EvictReason) {
		evicted = append(evicted, key+":"+reason.String())
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, []string{"b:capacity"}, evicted)
}

func TestLRUCacheDeleteDoesNotFireHook(t *testing.T) {
	fired := false
	c := NewLRUCache(2, time.Hour, WithEvictHook(func(string, int, EvictReason) { fired = true }))
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("missing")
	assert.False(t, fired)
	assert.Equal(t, 0, c.Size())
}

func TestManagerSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := NewLRUCache(10, time.Minute, WithClock[int](clock.Now))
	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(30 * time.Second)
	c.Set("c", 3)
	clock.Advance(45 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	assert.Equal(t, 2, m.Sweep())
	assert.Equal(t, 1, c.Size())
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
