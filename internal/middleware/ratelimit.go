package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/lexbrief/lexbrief/internal/pkg/response"
)

// rateLimiter keeps a sliding window of request timestamps per
// caller+path. The state is process-local: concurrently running
// instances each enforce their own window, which keeps this a
// best-effort throttle rather than a correctness guarantee.
type rateLimiter struct {
	mu            sync.Mutex
	window        time.Duration
	max           int
	hits          map[string][]time.Time
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

func RateLimit(window time.Duration, max int) gin.HandlerFunc {
	limiter := &rateLimiter{
		window:        window,
		max:           max,
		hits:          make(map[string][]time.Time),
		sweepInterval: 5 * time.Minute,
		now:           time.Now,
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 || l.max <= 0 {
		c.Next()
		return
	}
	uid := "0"
	if v, ok := c.Get(ContextCallerIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			uid = id
		}
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{c.ClientIP(), uid, path}, "|")

	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.cleanupExpiredLocked(now)
	}
	recent := pruneWindow(l.hits[key], now.Add(-l.window))
	if len(recent) >= l.max {
		l.hits[key] = recent
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("caller_id", uid),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, "too_many_requests", http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	l.hits[key] = append(recent, now)
	l.mu.Unlock()
	c.Next()
}

func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	for key, stamps := range l.hits {
		recent := pruneWindow(stamps, cutoff)
		if len(recent) == 0 {
			delete(l.hits, key)
			continue
		}
		l.hits[key] = recent
	}
	l.lastSweep = now
}

func pruneWindow(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}
	return stamps[idx:]
}
