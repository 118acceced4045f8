package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts hits in a window that starts with the first hit.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RateLimiter is a fixed-window limiter shared by every server replica.
type RateLimiter struct {
	client  *redis.Client
	script  *redis.Script
	prefix  string
	timeout time.Duration
}

// NewRateLimiter returns nil for a nil client, and a nil limiter allows everything.
func NewRateLimiter(client *redis.Client, prefix string) *RateLimiter {
	if client == nil {
		return nil
	}
	return &RateLimiter{
		client:  client,
		script:  redis.NewScript(fixedWindowScript),
		prefix:  prefix + "ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

// Allow reports whether another hit fits into the window for key.
// Redis errors fail open: an unreachable limiter must not block admins.
func (l *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}

	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, ttl, limit).Int64()
	if err != nil {
		return true
	}
	return allowed == 1
}
