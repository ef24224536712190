package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// IPRateLimiter is a sliding-window per-IP request counter for abuse-prone
// endpoints such as magic-link issuance. State lives in process memory; a
// cleanup loop drops idle IPs so the map cannot grow without bound.
type IPRateLimiter struct {
	maxRequests int
	window      time.Duration

	mu    sync.Mutex
	state map[string][]time.Time
}

func NewIPRateLimiter(maxRequests int, window time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{
		maxRequests: maxRequests,
		window:      window,
		state:       make(map[string][]time.Time),
	}
	go l.cleanupLoop()
	return l
}

// Allow records a hit for ip and reports whether it stays within the limit,
// along with how long the caller should wait when it does not.
func (l *IPRateLimiter) Allow(ip string) (bool, time.Duration) {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.state[ip][:0]
	for _, ts := range l.state[ip] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	l.state[ip] = kept

	if len(kept) <= l.maxRequests {
		return true, 0
	}
	retryAfter := kept[0].Add(l.window).Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return false, retryAfter
}

// Middleware rejects callers over the limit with 429 and a Retry-After header.
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := l.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.Error(http.StatusTooManyRequests, "Too many requests. Please try again later."))
			return
		}
		c.Next()
	}
}

func (l *IPRateLimiter) cleanupLoop() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for range tick.C {
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, arr := range l.state {
			kept := arr[:0]
			for _, ts := range arr {
				if ts.After(cutoff) {
					kept = append(kept, ts)
				}
			}
			if len(kept) == 0 {
				delete(l.state, ip)
			} else {
				l.state[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}
