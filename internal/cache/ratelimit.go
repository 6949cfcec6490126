package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const auditBucketPrefix = "ratelimit:audit:"

// RateLimitResult is the outcome of taking one audit token.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// auditBucketScript refills a per-website bucket of perHour tokens at
// perHour/hour and takes one token. Times are in milliseconds.
// Returns {allowed, retry_after_ms, remaining}.
var auditBucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens = tonumber(state[1]) or capacity
local at = tonumber(state[2]) or now
if now > at then
	tokens = math.min(capacity, tokens + (now - at) / interval)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait = math.ceil((1 - tokens) * interval)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'at', now)
redis.call('PEXPIRE', KEYS[1], math.ceil(capacity * interval))
return {allowed, wait, math.floor(tokens)}
`)

// AuditRateLimitKey returns the bucket key for a website.
func AuditRateLimitKey(websiteID int64) string {
	return auditBucketPrefix + strconv.FormatInt(websiteID, 10)
}

// CheckAuditRateLimit takes one audit token from the website's bucket.
// perHour <= 0 disables the limit.
func (c *Cache) CheckAuditRateLimit(ctx context.Context, websiteID int64, perHour int) (*RateLimitResult, error) {
	if perHour <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: -1}, nil
	}

	// Milliseconds needed to refill one token.
	interval := float64(time.Hour.Milliseconds()) / float64(perHour)

	res, err := auditBucketScript.Run(ctx, c.client,
		[]string{AuditRateLimitKey(websiteID)},
		perHour, interval, c.now().UnixMilli(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("audit rate limit: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("audit rate limit: unexpected reply %v", res)
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
		Remaining:  res[2],
	}, nil
}
