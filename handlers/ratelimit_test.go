package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerIP(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3)
	rl.now = func() time.Time { return now }

	for i := range 3 {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "other IPs have their own bucket")

	now = now.Add(21 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "one token back after a third of a minute")
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(visitorIdle + time.Minute)
	rl.Allow("10.0.0.3")
	assert.Equal(t, 1, rl.size())
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0)
	for range 100 {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow("10.0.0.1"))
}
