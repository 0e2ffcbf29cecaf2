package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	limiterSweepEvery = time.Minute
	limiterIdleCutoff = 3 * time.Minute
)

// RateLimiter tracks a refilling request allowance per client address.
// Each client may burst up to the bucket capacity and then sustain the
// configured requests-per-second rate.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	perSec   float64
	capacity float64
}

type clientBucket struct {
	allowance float64
	lastSeen  time.Time
}

// NewRateLimiter builds a limiter allowing perSecond sustained requests with
// the given burst capacity per client. A background sweep evicts clients that
// have gone quiet.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*clientBucket),
		perSec:   perSecond,
		capacity: float64(burst),
	}
	if rl.capacity < 1 {
		rl.capacity = 1
	}
	go rl.sweep()
	return rl
}

// Allow refills the client's allowance for the time elapsed since its last
// request, then spends one unit, reporting whether the request may proceed.
func (rl *RateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[addr]
	if !ok {
		rl.clients[addr] = &clientBucket{allowance: rl.capacity - 1, lastSeen: now}
		return true
	}

	c.allowance += now.Sub(c.lastSeen).Seconds() * rl.perSec
	if c.allowance > rl.capacity {
		c.allowance = rl.capacity
	}
	c.lastSeen = now

	if c.allowance < 1 {
		return false
	}
	c.allowance--
	return true
}

// sweep drops buckets for idle clients so the map does not grow with every
// address ever seen.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-limiterIdleCutoff)
		rl.mu.Lock()
		for addr, c := range rl.clients {
			if c.lastSeen.Before(cutoff) {
				delete(rl.clients, addr)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit answers 429 Too Many Requests once a client exceeds the
// configured rate. Clients are keyed by the X-Real-Ip header when the RealIP
// middleware has set it, falling back to the connection's remote address.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientAddr(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
