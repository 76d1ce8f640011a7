// Package catalog loads the dish and spice tables into an immutable
// spice.Catalog and keeps it for the lifetime of the process.
package catalog

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/internal/ports/outbound"
)

// Loader memoizes the catalog read from a source. The first successful Load
// is cached and returned to every later caller.
type Loader struct {
	source outbound.CatalogSource
	logger *zap.Logger

	mu       sync.RWMutex
	current  *spice.Catalog
	loadedAt time.Time
	onLoad   []func(*spice.Catalog)
}

// NewLoader creates a loader over source.
func NewLoader(source outbound.CatalogSource, logger *zap.Logger) *Loader {
	return &Loader{
		source: source,
		logger: logger.Named("catalog"),
	}
}

var _ outbound.CatalogProvider = (*Loader)(nil)

// OnLoad registers fn to run after every successful load or reload.
func (l *Loader) OnLoad(fn func(*spice.Catalog)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLoad = append(l.onLoad, fn)
}

// Load returns the cached catalog, reading the source on first use.
func (l *Loader) Load(ctx context.Context) (*spice.Catalog, error) {
	l.mu.RLock()
	c := l.current
	l.mu.RUnlock()
	if c != nil {
		return c, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil {
		return l.current, nil
	}
	return l.readLocked(ctx)
}

// Reload re-reads the source. On failure the previous catalog stays in effect.
func (l *Loader) Reload(ctx context.Context) (*spice.Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked(ctx)
}

func (l *Loader) readLocked(ctx context.Context) (*spice.Catalog, error) {
	ctx, span := otel.Tracer("spiceshelf/catalog").Start(ctx, "catalog.load")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.source", l.source.Describe()))

	start := time.Now()
	c, err := l.source.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog load failed")
		l.logger.Error("Failed to load catalog",
			zap.String("source", l.source.Describe()),
			zap.Error(err),
		)
		return nil, err
	}

	l.current = c
	l.loadedAt = time.Now()

	fields := []zap.Field{
		zap.String("source", l.source.Describe()),
		zap.Int("spices", c.SpiceCount()),
		zap.Int("dishes", c.DishCount()),
		zap.Duration("duration", time.Since(start)),
	}
	if unknown := c.UnknownSpices(); len(unknown) > 0 {
		fields = append(fields, zap.Strings("unknown_spices", unknown))
	}
	l.logger.Info("Catalog loaded", fields...)

	for _, fn := range l.onLoad {
		fn(c)
	}
	return c, nil
}

// Catalog returns the catalog in effect, or an empty one before the first
// successful Load.
func (l *Loader) Catalog() *spice.Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return spice.NewCatalog(nil, nil)
	}
	return l.current
}

// LoadedAt reports when the catalog in effect was read.
func (l *Loader) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

// Source returns the underlying source.
func (l *Loader) Source() outbound.CatalogSource {
	return l.source
}
