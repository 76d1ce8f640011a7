package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/spice"
)

func TestMetrics_HTTPMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewMetrics(zap.NewNop())

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/dishes/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, name := range []string{"dal", "chai"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dishes/"+name, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/dishes/{name}", "418"),
	))
}

func TestMetrics_BusinessCounters(t *testing.T) {
	m := NewMetrics(zap.NewNop())

	m.SpiceAdded("Cumin")
	m.SpiceAdded("Cumin")
	m.BasketCleared()
	m.SearchCompleted(2, 5)
	m.CatalogLoaded(spice.NewCatalog(
		[]spice.Spice{{Name: "Cumin"}},
		[]spice.Dish{{Name: "Jeera Rice", Spices: []string{"Cumin"}}},
	))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.spicesAddedTotal.WithLabelValues("Cumin")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.basketsClearedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.searchesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.catalogDishes))
}

func TestMetrics_HandlerExposesOwnRegistry(t *testing.T) {
	first := NewMetrics(zap.NewNop())
	second := NewMetrics(zap.NewNop())
	first.BasketCleared()

	srv := httptest.NewServer(second.Handler())
	defer srv.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "spiceshelf_baskets_cleared_total 0"))
}

func TestTracingProvider_DisabledIsPassThrough(t *testing.T) {
	tp, err := NewTracingProvider(TracingConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.Enabled())

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, TraceIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	tp.Middleware(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, tp.Shutdown(context.Background()))
}
