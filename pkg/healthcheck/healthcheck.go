// Package healthcheck aggregates component checks behind the /health, /ready
// and /live endpoints.
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status is the outcome of one check or of the whole service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// checkTimeout bounds one round of checks.
const checkTimeout = 10 * time.Second

// Check is the result of a single checker.
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration_ms"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response is the aggregate served on /health. Checks are sorted by name.
type Response struct {
	Status        Status        `json:"status"`
	Version       string        `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []Check       `json:"checks"`
	TotalDuration time.Duration `json:"total_duration_ms"`
}

// Checker inspects one dependency.
type Checker interface {
	Check(ctx context.Context) Check
}

// HealthCheck runs the registered checkers and caches the aggregate for
// cacheTTL.
type HealthCheck struct {
	version  string
	checkers map[string]Checker
	logger   *zap.Logger
	mu       sync.RWMutex
	cache    *Response
	cacheTTL time.Duration
}

// New creates an empty registry with a 5s cache.
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		checkers: make(map[string]Checker),
		logger:   logger,
		cacheTTL: 5 * time.Second,
	}
}

// Register adds or replaces the checker stored under name.
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cache = nil
}

// SetCacheTTL changes how long an aggregate is reused.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// Handler serves the full aggregate; 503 when any check is unhealthy.
func (h *HealthCheck) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := h.Check(c.Request.Context())

		code := http.StatusOK
		if response.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, response)
	}
}

// LivenessHandler answers 200 as long as the process can serve requests.
func (h *HealthCheck) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

// ReadinessHandler answers 200 only when every check is healthy. Otherwise
// it lists the checks holding the service back.
func (h *HealthCheck) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := h.Check(c.Request.Context())
		if response.Status == StatusHealthy {
			c.JSON(http.StatusOK, gin.H{
				"status":    "ready",
				"timestamp": response.Timestamp,
			})
			return
		}

		var failing []string
		for _, check := range response.Checks {
			if check.Status != StatusHealthy {
				failing = append(failing, check.Name)
			}
		}
		h.logger.Warn("Not ready", zap.Strings("checks", failing))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"failing": failing,
			"checks":  response.Checks,
		})
	}
}

// Check returns the cached aggregate or runs every checker concurrently.
// The worst status wins: unhealthy over degraded over healthy.
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.cache != nil && time.Since(h.cache.Timestamp) < h.cacheTTL {
		cached := *h.cache
		h.mu.RUnlock()
		return cached
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	h.mu.RUnlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make(chan Check, len(checkers))
	var wg sync.WaitGroup
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			check := checker.Check(ctx)
			check.Name = name
			results <- check
		}(name, checker)
	}
	wg.Wait()
	close(results)

	response := Response{
		Status:    StatusHealthy,
		Version:   h.version,
		Timestamp: start,
		Checks:    make([]Check, 0, len(checkers)),
	}
	for check := range results {
		response.Checks = append(response.Checks, check)
		switch {
		case check.Status == StatusUnhealthy:
			response.Status = StatusUnhealthy
		case check.Status == StatusDegraded && response.Status == StatusHealthy:
			response.Status = StatusDegraded
		}
	}
	sort.Slice(response.Checks, func(i, j int) bool {
		return response.Checks[i].Name < response.Checks[j].Name
	})
	response.TotalDuration = time.Since(start)

	h.mu.Lock()
	h.cache = &response
	h.mu.Unlock()

	return response
}

// RedisChecker pings the basket store.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker wraps client.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Check implements Checker. Pool stats go into the metadata.
func (r *RedisChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:        "redis",
		LastChecked: start,
	}

	pong, err := r.client.Ping(ctx).Result()
	check.Duration = time.Since(start)

	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	if pong != "PONG" {
		check.Status = StatusUnhealthy
		check.Message = "Unexpected ping response"
		return check
	}

	stats := r.client.PoolStats()
	check.Metadata = map[string]interface{}{
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"timeouts":    stats.Timeouts,
	}

	check.Status = StatusHealthy
	return check
}

// CatalogChecker reports whether a catalog is loaded and non-empty
type CatalogChecker struct {
	stats func() (spices, dishes int, loadedAt time.Time)
}

// NewCatalogChecker creates a checker over a catalog stats function
func NewCatalogChecker(stats func() (spices, dishes int, loadedAt time.Time)) *CatalogChecker {
	return &CatalogChecker{stats: stats}
}

// Check implements Checker.
func (c *CatalogChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:        "catalog",
		LastChecked: start,
	}

	spices, dishes, loadedAt := c.stats()
	check.Duration = time.Since(start)
	check.Metadata = map[string]interface{}{
		"spices":    spices,
		"dishes":    dishes,
		"loaded_at": loadedAt,
	}

	switch {
	case loadedAt.IsZero():
		check.Status = StatusUnhealthy
		check.Message = "Catalog not loaded"
	case dishes == 0 || spices == 0:
		check.Status = StatusDegraded
		check.Message = "Catalog is empty"
	default:
		check.Status = StatusHealthy
	}

	return check
}

// CustomChecker adapts a function to Checker.
type CustomChecker struct {
	name  string
	check func(ctx context.Context) (Status, string, interface{})
}

// NewCustomChecker names a check function.
func NewCustomChecker(name string, check func(ctx context.Context) (Status, string, interface{})) *CustomChecker {
	return &CustomChecker{
		name:  name,
		check: check,
	}
}

// Check implements Checker.
func (c *CustomChecker) Check(ctx context.Context) Check {
	start := time.Now()

	status, message, metadata := c.check(ctx)

	return Check{
		Name:        c.name,
		Status:      status,
		Message:     message,
		Metadata:    metadata,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

// MarshalJSON writes Duration in milliseconds.
func (c Check) MarshalJSON() ([]byte, error) {
	type Alias Check
	return json.Marshal(&struct {
		Duration float64 `json:"duration_ms"`
		*Alias
	}{
		Duration: float64(c.Duration.Milliseconds()),
		Alias:    (*Alias)(&c),
	})
}

// MarshalJSON writes TotalDuration in milliseconds.
func (r Response) MarshalJSON() ([]byte, error) {
	type Alias Response
	return json.Marshal(&struct {
		TotalDuration float64 `json:"total_duration_ms"`
		*Alias
	}{
		TotalDuration: float64(r.TotalDuration.Milliseconds()),
		Alias:         (*Alias)(&r),
	})
}
