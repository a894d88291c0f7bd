package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/franciscosanchezn/gin-cookbook-api/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a caller's bucket is kept without writes. A
// bucket idle this long has refilled, so dropping it changes nothing.
const limiterIdleTTL = 3 * time.Minute

// WriteLimiter keeps one token bucket per caller for mutating requests.
// Authenticated callers are keyed by user, anonymous ones by client IP.
type WriteLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*callerLimiter
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type callerLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewWriteLimiter allows perMinute writes per caller with a burst of the same size
func NewWriteLimiter(perMinute int) *WriteLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &WriteLimiter{
		limiters: make(map[string]*callerLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

// allow spends one token from the caller's bucket
func (l *WriteLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	entry, ok := l.limiters[key]
	if !ok {
		entry = &callerLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.seen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle buckets, at most once per TTL. Callers hold l.mu.
func (l *WriteLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdleTTL {
		return
	}
	l.lastSweep = now
	for key, entry := range l.limiters {
		if now.Sub(entry.seen) >= limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
}

// Middleware rejects writes over budget with 429. Safe methods pass untouched.
func (l *WriteLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if caller := AuthFromContext(c); caller.IsAuthenticated() {
			key = "user:" + strconv.FormatUint(uint64(caller.UserID), 10)
		}

		if !l.allow(key) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				models.NewAPIError(models.ErrRateLimited, "Too many write requests, slow down"))
			return
		}
		c.Next()
	}
}
