// Package ratelimit provides the fixed-window limiter guarding the admin
// login endpoint. Redis backs it when configured so the window survives
// restarts and is shared across instances; otherwise an in-process fallback
// applies. The limiter fails open: an unreachable Redis never locks the
// admin out.
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"applygate/pkg/platform/httputil"
)

// Limiter reports whether another request is allowed for key within the window.
type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// Memory is a mutex-guarded fixed-window limiter for single-instance deployments.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]*bucket)}
}

func (m *Memory) Allow(key string, limit int, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	b, ok := m.buckets[key]
	if !ok || now.After(b.windowEnd) {
		m.buckets[key] = &bucket{count: 1, windowEnd: now.Add(window)}
		return true
	}
	if b.count >= limit {
		return false
	}
	b.count++
	return true
}

const allowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// Redis is a fixed-window limiter on a shared Redis, using a single Lua
// round trip per check.
type Redis struct {
	client *redis.Client
	script *redis.Script
}

func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		return nil
	}
	return &Redis{
		client: client,
		script: redis.NewScript(allowScript),
	}
}

func (l *Redis) Allow(key string, limit int, window time.Duration) bool {
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
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{"ratelimit:" + key}, ttl, limit).Int64()
	if err != nil {
		return true
	}
	return allowed == 1
}

// Middleware applies the limiter per request key. An empty key or a nil
// limiter lets the request through.
func Middleware(limiter Limiter, keyFn func(*http.Request) string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(key, limit, window) {
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"message": "Too many attempts, try again later",
					"error":   "rate_limited",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
