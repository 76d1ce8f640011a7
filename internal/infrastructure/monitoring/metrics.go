package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/spice"
)

// Metrics holds the Prometheus collectors of the service. Each instance owns
// its registry, so several can coexist in one process.
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Business metrics
	spicesAddedTotal    *prometheus.CounterVec
	basketsClearedTotal prometheus.Counter
	searchesTotal       prometheus.Counter
	searchResults       prometheus.Histogram
	basketSize          prometheus.Histogram

	// Catalog metrics
	catalogDishes   prometheus.Gauge
	catalogSpices   prometheus.Gauge
	catalogLoadedAt prometheus.Gauge

	errorsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry
func NewMetrics(logger *zap.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		logger:   logger,
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		spicesAddedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spiceshelf_spices_added_total",
				Help: "Spices added to baskets",
			},
			[]string{"spice"},
		),
		basketsClearedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "spiceshelf_baskets_cleared_total",
			Help: "Baskets cleared",
		}),
		searchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "spiceshelf_searches_total",
			Help: "Searches triggered",
		}),
		searchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "spiceshelf_search_results",
			Help:    "Number of dishes returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		basketSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "spiceshelf_basket_size",
			Help:    "Number of spices in a searched basket",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
		}),

		catalogDishes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spiceshelf_catalog_dishes",
			Help: "Dishes in the catalog in effect",
		}),
		catalogSpices: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spiceshelf_catalog_spices",
			Help: "Spices in the catalog in effect",
		}),
		catalogLoadedAt: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spiceshelf_catalog_loaded_timestamp_seconds",
			Help: "Unix time of the last successful catalog load",
		}),

		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spiceshelf_errors_total",
				Help: "Errors by component and error code",
			},
			[]string{"component", "code"},
		),
	}
}

// HTTPMiddleware records request count, latency and size per route pattern
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		statusCode := strconv.Itoa(status)

		m.httpRequestsTotal.WithLabelValues(r.Method, path, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path, statusCode).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, path).Observe(float64(ww.BytesWritten()))

		if status >= 500 {
			m.errorsTotal.WithLabelValues("http", "server_error").Inc()
		}
	})
}

// SpiceAdded counts a successful add
func (m *Metrics) SpiceAdded(name string) {
	m.spicesAddedTotal.WithLabelValues(name).Inc()
}

// BasketCleared counts a clear
func (m *Metrics) BasketCleared() {
	m.basketsClearedTotal.Inc()
}

// SearchCompleted records one computed result list
func (m *Metrics) SearchCompleted(basketSize, results int) {
	m.searchesTotal.Inc()
	m.basketSize.Observe(float64(basketSize))
	m.searchResults.Observe(float64(results))
}

// CatalogLoaded updates the catalog gauges
func (m *Metrics) CatalogLoaded(c *spice.Catalog) {
	m.catalogDishes.Set(float64(c.DishCount()))
	m.catalogSpices.Set(float64(c.SpiceCount()))
	m.catalogLoadedAt.SetToCurrentTime()
}

// RecordError counts an error by component and code
func (m *Metrics) RecordError(component, code string) {
	m.errorsTotal.WithLabelValues(component, code).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
