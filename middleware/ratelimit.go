package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiters hands out one token bucket per key. The WebSocket handler uses
// it per connection so action spam is throttled like HTTP spam.
type Limiters struct {
	mu      sync.Mutex
	r       rate.Limit
	b       int
	buckets map[string]*ipLimiter
}

// NewLimiters allows r events per second with bursts of b per key.
func NewLimiters(r rate.Limit, b int) *Limiters {
	return &Limiters{r: r, b: b, buckets: make(map[string]*ipLimiter)}
}

// Allow spends a token from key's bucket.
func (l *Limiters) Allow(key string) bool {
	l.mu.Lock()
	il, ok := l.buckets[key]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.buckets[key] = il
	}
	il.lastSeen = time.Now()
	l.mu.Unlock()
	return il.limiter.Allow()
}

// Forget drops buckets idle since before cutoff.
func (l *Limiters) Forget(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, il := range l.buckets {
		if il.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}

// Len is the number of tracked keys.
func (l *Limiters) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit provides per-IP token-bucket rate limiting. The caller owns
// cleanup: schedule l.Forget on the server scheduler.
func RateLimit(l *Limiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
