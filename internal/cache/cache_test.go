package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v")
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
	assert.Equal(t, 1, c.Hits())
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Hits())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("ja", "zh-TW", "text"), Key("ja", "zh-TW", "text"))
	assert.NotEqual(t, Key("ja", "zh-TW", "text"), Key("ja", "zh-TWtext"))
	assert.Len(t, Key("x"), 64)
}
