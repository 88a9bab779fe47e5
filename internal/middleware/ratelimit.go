package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter is a fixed-window redis-backed limiter. It fails open when
// redis is unavailable.
type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
// per client IP.
func NewRateLimiter(rdb *redis.Client, limit int64, window time.Duration, prefix string) *RateLimiter {
	return &RateLimiter{
		redis:  rdb,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// counter increment and expiry must be atomic, hence the script
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// Middleware enforces the limit on the wrapped handler.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("%s%s", rl.prefix, clientIP(r))
		ttlSeconds := int64(rl.window.Seconds())

		result, err := rl.redis.Eval(r.Context(), rateLimitScript, []string{key}, ttlSeconds).Result()
		if err != nil {
			log.Error().Err(err).Msg("Rate limit redis error")
			next.ServeHTTP(w, r)
			return
		}

		var count int64
		switch v := result.(type) {
		case int64:
			count = v
		case float64:
			count = int64(v)
		default:
			log.Error().Str("type", fmt.Sprintf("%T", result)).Msg("Unexpected rate limit script result")
			next.ServeHTTP(w, r)
			return
		}

		if count > rl.limit {
			respondError(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the originating client address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
