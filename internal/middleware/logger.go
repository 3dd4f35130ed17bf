package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/guttosm/fiscalpulse/internal/logger"
)

// RequestLogger logs one structured line per request: request id, method,
// path, status, latency, response size and client ip. 4xx lines are logged
// at warn level and 5xx lines at error level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = logger.L().Error()
		case status >= http.StatusBadRequest:
			ev = logger.L().Warn()
		default:
			ev = logger.L().Info()
		}
		ev.Str("request_id", RequestIDOf(c)).
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

type client struct {
	windowStart time.Time
	count       int
}

// RateLimiter is a fixed-window, per client IP, in-memory limiter. One
// instance is shared by all requests of a router.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter allows limit requests per window for each client IP.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: map[string]*client{},
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Handler rejects requests over the limit with 429.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(ip string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[ip]
	if !ok || now.Sub(cl.windowStart) > l.window {
		l.sweep(now)
		l.clients[ip] = &client{windowStart: now, count: 1}
		return true
	}
	cl.count++
	return cl.count <= l.limit
}

// sweep drops clients whose window expired. Called with mu held.
func (l *RateLimiter) sweep(now time.Time) {
	for ip, cl := range l.clients {
		if now.Sub(cl.windowStart) > l.window {
			delete(l.clients, ip)
		}
	}
}
