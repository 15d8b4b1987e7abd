package cache

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"icpep-backend/internal/config"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/utils"
)

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = interval_ms - (now_ms - last_refill)
	if retry_after_ms < 0 then retry_after_ms = 0 end
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateLimiter is a Redis token bucket keyed by route name and client IP.
type RateLimiter struct {
	Client *redis.Client
	Config config.RateLimitConfig
	Logger *logger.Logger
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, cfg config.RateLimitConfig, log *logger.Logger) *RateLimiter {
	return &RateLimiter{Client: client, Config: cfg, Logger: log, now: time.Now}
}

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

func (rl *RateLimiter) Take(r *http.Request, key string) (Decision, error) {
	args := []interface{}{
		rl.now().UnixMilli(),
		rl.Config.Capacity,
		rl.Config.RefillTokens,
		rl.Config.RefillInterval.Milliseconds(),
		int64(rl.Config.TTL / time.Second),
	}
	vals, err := tokenBucketScript.Run(r.Context(), rl.Client, []string{key}, args...).Int64Slice()
	if err != nil {
		return Decision{Allowed: true}, err
	}
	if len(vals) != 3 {
		return Decision{Allowed: true}, fmt.Errorf("unexpected token bucket result %v", vals)
	}
	return Decision{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// Middleware limits requests per client IP under the given bucket name.
// Redis errors fail open.
func (rl *RateLimiter) Middleware(bucket string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl == nil || rl.Client == nil || !rl.Config.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.Config.Prefix + ":" + bucket + ":" + ClientIP(r)
			d, err := rl.Take(r, key)
			if err != nil {
				rl.Logger.Warn("RATELIMIT", fmt.Sprintf("redis error for key=%s: %v", key, err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.Config.Capacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				rl.Logger.LogSecurity("RATE_LIMIT", fmt.Sprintf("blocked %s retry in %ds", key, secs))
				utils.WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded", fmt.Errorf("retry after %d seconds", secs))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers the address chi's RealIP middleware left in RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
