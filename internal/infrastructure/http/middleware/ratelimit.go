package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spiceshelf/shelf/pkg/errors"
)

type visitor struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	seen    time.Time
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	idle     time.Duration
	visitors sync.Map
	logger   *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter allows requestsPerMin per client with the given burst.
// Clients idle for longer than idle are forgotten by Cleanup.
func NewRateLimiter(requestsPerMin, burst int, idle time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limit:  rate.Limit(float64(requestsPerMin) / 60),
		burst:  burst,
		idle:   idle,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Allow reports whether a request from ip may proceed.
func (l *RateLimiter) Allow(ip string) bool {
	v, _ := l.visitors.LoadOrStore(ip, &visitor{limiter: rate.NewLimiter(l.limit, l.burst)})
	vis := v.(*visitor)

	vis.mu.Lock()
	vis.seen = time.Now()
	vis.mu.Unlock()

	return vis.limiter.Allow()
}

// Cleanup forgets clients idle for longer than the idle window.
func (l *RateLimiter) Cleanup() int {
	cutoff := time.Now().Add(-l.idle)
	removed := 0
	l.visitors.Range(func(key, value any) bool {
		vis := value.(*visitor)
		vis.mu.Lock()
		stale := vis.seen.Before(cutoff)
		vis.mu.Unlock()
		if stale {
			l.visitors.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Start runs Cleanup every interval until Stop.
func (l *RateLimiter) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if l.Allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		l.logger.Warn("Rate limit exceeded",
			zap.String("ip", ip),
			zap.String("path", r.URL.Path),
		)

		appErr := errors.NewTooManyRequestsError()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
		w.WriteHeader(appErr.StatusCode())
		json.NewEncoder(w).Encode(errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
	})
}

// clientIP strips the port from RemoteAddr. RealIP has already applied any
// forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
