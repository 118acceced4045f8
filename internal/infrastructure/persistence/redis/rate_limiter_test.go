package redis

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNilRateLimiterAllows(t *testing.T) {
	var l *RateLimiter
	assert.True(t, l.Allow("admin-1", 1, time.Second))
	assert.Nil(t, NewRateLimiter(nil, "x:"))
}

func TestRateLimiterFailsOpen(t *testing.T) {
	// Nothing listens on this port, so every script call errors.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRateLimiter(client, "test:")
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("admin-1", 1, time.Minute))
	}
}

func TestRateLimiterIgnoresInvalidArguments(t *testing.T) {
	l := &RateLimiter{}
	assert.True(t, l.Allow("", 10, time.Second))
	assert.True(t, l.Allow("k", 0, time.Second))
	assert.True(t, l.Allow("k", 10, 0))
}

func TestConfigAddrAndPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "cache"
	cfg.Port = 6380

	assert.Equal(t, "cache:6380", cfg.Addr())
	assert.Equal(t, "cache:6380", cfg.Options().Addr)

	c := NewCache(nil, cfg.KeyPrefix)
	assert.Equal(t, "scholarship-review:dashboard:reference", c.key("dashboard:reference"))
}
