package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/charlesng35/huddle/pkg/errors"
	"github.com/charlesng35/huddle/pkg/response"
)

const defaultLimiterIdle = 10 * time.Minute

// IPRateLimiter hands out one token bucket per client key. Buckets idle for longer than the
// idle window are pruned on access.
type IPRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastPrune time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter constructs a limiter allowing rps requests per second with the given burst.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*clientLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     defaultLimiterIdle,
		now:      time.Now,
	}
}

// Allow reports whether a request from key may proceed now.
func (l *IPRateLimiter) Allow(key string) bool {
	return l.limiter(key).AllowN(l.now(), 1)
}

// Len reports the number of tracked clients.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *IPRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) >= l.idle {
		for k, cl := range l.limiters {
			if now.Sub(cl.lastSeen) > l.idle {
				delete(l.limiters, k)
			}
		}
		l.lastPrune = now
	}

	cl, ok := l.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// RateLimit rejects requests once a client exhausts its token bucket. Authenticated callers are
// keyed by user id, anonymous ones by client IP.
func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := c.ClientIP()
		if userID := c.GetString(CtxUserIDKey); userID != "" {
			key = "user:" + userID
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.burst))
		if !limiter.Allow(key) {
			retry := 1
			if limiter.rps > 0 {
				retry = int(math.Ceil(1 / float64(limiter.rps)))
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
