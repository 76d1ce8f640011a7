package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthCheck_AggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"no checkers", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for i, s := range tt.statuses {
				name := string(rune('a' + i))
				hc.Register(name, NewMockChecker(name).WithStatus(s))
			}

			response := hc.Check(context.Background())

			AssertResponseStructure(t, response)
			assert.Equal(t, tt.want, response.Status)
			assert.Len(t, response.Checks, len(tt.statuses))
		})
	}
}

func TestHealthCheck_RunsCheckersConcurrently(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	delay := 50 * time.Millisecond
	hc.Register("catalog", NewMockChecker("catalog").WithDelay(delay))
	hc.Register("redis", NewMockChecker("redis").WithDelay(delay))
	hc.Register("sessions", NewMockChecker("sessions").WithDelay(delay))

	start := time.Now()
	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Less(t, time.Since(start), 3*delay)
}

func TestHealthCheck_CachesResponse(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.SetCacheTTL(time.Minute)
	checker := NewMockChecker("catalog")
	hc.Register("catalog", checker)

	hc.Check(context.Background())
	hc.Check(context.Background())

	assert.Equal(t, 1, checker.CallCount())
}

func TestHealthCheck_Handlers(t *testing.T) {
	healthy := New("1.0.0", zap.NewNop())
	healthy.Register("catalog", NewMockChecker("catalog"))

	unhealthy := New("1.0.0", zap.NewNop())
	unhealthy.Register("redis", NewMockChecker("redis").WithStatus(StatusUnhealthy).WithMessage("connection refused"))

	tests := []struct {
		name    string
		handler gin.HandlerFunc
		want    int
	}{
		{"health ok", healthy.Handler(), http.StatusOK},
		{"health failing", unhealthy.Handler(), http.StatusServiceUnavailable},
		{"ready", healthy.ReadinessHandler(), http.StatusOK},
		{"not ready", unhealthy.ReadinessHandler(), http.StatusServiceUnavailable},
		{"live while failing", unhealthy.LivenessHandler(), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/probe", tt.handler)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

			assert.Equal(t, tt.want, w.Code)
			assert.True(t, json.Valid(w.Body.Bytes()))
		})
	}
}

func TestHealthCheck_ChecksSortedByName(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	for _, name := range []string{"sessions", "catalog", "redis"} {
		hc.Register(name, NewMockChecker(name))
	}

	response := hc.Check(context.Background())

	names := make([]string, len(response.Checks))
	for i, c := range response.Checks {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"catalog", "redis", "sessions"}, names)
}

func TestHealthCheck_RegisterDropsCachedResponse(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.SetCacheTTL(time.Minute)
	hc.Register("catalog", NewMockChecker("catalog"))
	require.Len(t, hc.Check(context.Background()).Checks, 1)

	hc.Register("redis", NewMockChecker("redis").WithStatus(StatusUnhealthy))

	response := hc.Check(context.Background())
	assert.Len(t, response.Checks, 2)
	assert.Equal(t, StatusUnhealthy, response.Status)
}

func TestReadinessHandler_ListsFailingChecks(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.Register("catalog", NewMockChecker("catalog").WithStatus(StatusDegraded))
	hc.Register("redis", NewMockChecker("redis").WithStatus(StatusUnhealthy))
	hc.Register("sessions", NewMockChecker("sessions"))

	router := gin.New()
	router.GET("/ready", hc.ReadinessHandler())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status  string   `json:"status"`
		Failing []string `json:"failing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, []string{"catalog", "redis"}, body.Failing)
}

func TestCatalogChecker(t *testing.T) {
	loaded := time.Now()

	tests := []struct {
		name   string
		spices int
		dishes int
		at     time.Time
		want   Status
	}{
		{"loaded", 6, 4, loaded, StatusHealthy},
		{"empty", 6, 0, loaded, StatusDegraded},
		{"not loaded", 0, 0, time.Time{}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewCatalogChecker(func() (int, int, time.Time) {
				return tt.spices, tt.dishes, tt.at
			})

			check := checker.Check(context.Background())

			AssertCheckResult(t, check, tt.want, "catalog")
			assert.Equal(t, tt.dishes, check.Metadata.(map[string]interface{})["dishes"])
		})
	}
}

func TestRedisChecker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	check := NewRedisChecker(client).Check(context.Background())

	AssertCheckResult(t, check, StatusUnhealthy, "redis")
	assert.NotEmpty(t, check.Message)
}

func TestCustomChecker(t *testing.T) {
	checker := NewCustomChecker("sessions", func(ctx context.Context) (Status, string, interface{}) {
		return StatusDegraded, "many sessions", map[string]int{"active": 10000}
	})

	check := checker.Check(context.Background())

	AssertCheckResult(t, check, StatusDegraded, "sessions")
	assert.Equal(t, "many sessions", check.Message)
}

func TestCheck_MarshalJSONUsesMilliseconds(t *testing.T) {
	check := Check{Name: "catalog", Status: StatusHealthy, Duration: 1500 * time.Millisecond}

	data, err := json.Marshal(check)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1500), decoded["duration_ms"])
	assert.Equal(t, "catalog", decoded["name"])
}
