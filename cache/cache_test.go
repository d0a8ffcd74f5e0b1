package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New(time.Hour)

	c.Set("samsung tv", 1299.00)
	value, ok := c.Get("samsung tv")
	assert.True(t, ok)
	assert.Equal(t, 1299.00, value)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := New(time.Hour)

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set("key", "value")

	clock = clock.Add(59 * time.Minute)
	_, ok := c.Get("key")
	assert.True(t, ok, "entry must survive inside the TTL")

	// Exactly at the TTL boundary the entry is already gone
	clock = clock.Add(time.Minute)
	_, ok = c.Get("key")
	assert.False(t, ok)

	// And it stays gone even if the clock moves back
	clock = clock.Add(-30 * time.Minute)
	_, ok = c.Get("key")
	assert.False(t, ok, "an expired entry must not resurrect")
	assert.Equal(t, 0, c.Len())
}

func TestSetResetsLifetime(t *testing.T) {
	c := New(time.Hour)

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set("key", 1)
	clock = clock.Add(50 * time.Minute)
	c.Set("key", 2)

	clock = clock.Add(50 * time.Minute)
	value, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestInvalidateAndClear(t *testing.T) {
	c := New(0) // 0 falls back to the default TTL

	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, 2, c.Len())

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "samsung tv 55", NormalizeKey("  Samsung   TV  55 "))
	assert.Equal(t, NormalizeKey("SAMSUNG TV"), NormalizeKey("samsung tv"))
	assert.Equal(t, "", NormalizeKey("   "))
}
