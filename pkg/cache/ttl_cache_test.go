package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGetSetExpire(t *testing.T) {
	c := New[string, int](time.Minute, time.Hour)
	defer c.Close()

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clock = clock.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "expired entry must not be returned")
	assert.Len(t, c.entries, 1, "expired entry stays until eviction")

	c.evictExpired()
	assert.Empty(t, c.entries)
}

func TestDelete(t *testing.T) {
	c := New[string, string](time.Minute, time.Hour)
	defer c.Close()

	c.Set("current", "1")
	c.Set("other", "2")

	c.Delete("current")
	_, ok := c.Get("current")
	assert.False(t, ok)
	v, ok := c.Get("other")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New[int, int](time.Second, time.Second)
	c.Close()
	c.Close()
}
