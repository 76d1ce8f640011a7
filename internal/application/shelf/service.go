// Package shelf provides the application layer for the spice shelf.
// It implements the use cases defined in the inbound ports.
package shelf

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/domain/shared"
	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/internal/ports/inbound"
	"github.com/spiceshelf/shelf/internal/ports/outbound"
	"github.com/spiceshelf/shelf/pkg/errors"
)

// Recorder receives business counters. monitoring.Metrics satisfies it.
type Recorder interface {
	SpiceAdded(name string)
	BasketCleared()
	SearchCompleted(basketSize, results int)
}

type nopRecorder struct{}

func (nopRecorder) SpiceAdded(string)        {}
func (nopRecorder) BasketCleared()           {}
func (nopRecorder) SearchCompleted(int, int) {}

// Service implements the shelf use cases
type Service struct {
	catalog  outbound.CatalogProvider
	baskets  outbound.BasketRepository
	recorder Recorder
	logger   *zap.Logger
}

// NewService creates a new shelf service. A nil recorder disables metrics.
func NewService(
	catalog outbound.CatalogProvider,
	baskets outbound.BasketRepository,
	recorder Recorder,
	logger *zap.Logger,
) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		catalog:  catalog,
		baskets:  baskets,
		recorder: recorder,
		logger:   logger.Named("shelf-service"),
	}
}

var _ inbound.ShelfService = (*Service)(nil)

// AddSpice puts a shelf spice into the session's basket. It reports false
// when the spice was already there.
func (s *Service) AddSpice(ctx context.Context, sessionID, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if err := (spice.Spice{Name: name}).Validate(); err != nil {
		return false, errors.NewValidationError(err.Error())
	}
	if !s.catalog.Catalog().HasSpice(name) {
		return false, errors.NewSpiceNotFoundError(name)
	}

	basket, err := s.load(ctx, sessionID)
	if err != nil {
		return false, err
	}

	added := basket.Add(name)
	if !added {
		return false, nil
	}
	if err := s.save(ctx, sessionID, basket); err != nil {
		return false, err
	}

	s.recorder.SpiceAdded(name)
	s.logEvents(sessionID, basket.PullEvents())
	return true, nil
}

// ClearBasket empties the basket and hides results.
func (s *Service) ClearBasket(ctx context.Context, sessionID string) error {
	basket, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	basket.Clear()
	if err := s.save(ctx, sessionID, basket); err != nil {
		return err
	}

	s.recorder.BasketCleared()
	s.logEvents(sessionID, basket.PullEvents())
	return nil
}

// TriggerSearch turns on results for the session.
func (s *Service) TriggerSearch(ctx context.Context, sessionID string) error {
	basket, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	basket.TriggerSearch()
	if err := s.save(ctx, sessionID, basket); err != nil {
		return err
	}

	items := basket.Items()
	results := spice.Filter(s.catalog.Catalog().Dishes(), items)
	s.recorder.SearchCompleted(len(items), len(results))
	s.logEvents(sessionID, basket.PullEvents())
	return nil
}

// DiscardSession drops any persisted basket for the session.
func (s *Service) DiscardSession(ctx context.Context, sessionID string) error {
	if err := s.baskets.Delete(ctx, sessionID); err != nil {
		return errors.Wrap(err, "failed to discard basket")
	}
	return nil
}

// View assembles the page state for a session. Results are computed against
// the current basket every time a searched session is rendered.
func (s *Service) View(ctx context.Context, sessionID string) (*inbound.ShelfView, error) {
	basket, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	catalog := s.catalog.Catalog()
	view := &inbound.ShelfView{
		Spices:          catalog.Spices(),
		Basket:          basket.Items(),
		SearchTriggered: basket.SearchTriggered(),
	}
	if view.SearchTriggered {
		view.Results = spice.Filter(catalog.Dishes(), view.Basket)
	}
	return view, nil
}

// Match filters the dish catalog without touching any session. Names are
// trimmed and blank entries dropped.
func (s *Service) Match(ctx context.Context, spices []string) ([]spice.Dish, error) {
	basket := spice.NewBasket()
	for _, name := range spices {
		if name = strings.TrimSpace(name); name != "" {
			basket.Add(name)
		}
	}
	results := spice.Filter(s.catalog.Catalog().Dishes(), basket.Items())

	s.logger.Debug("Matched dishes",
		zap.Strings("spices", basket.Items()),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Spices returns the shelf.
func (s *Service) Spices(ctx context.Context) []spice.Spice {
	return s.catalog.Catalog().Spices()
}

func (s *Service) load(ctx context.Context, sessionID string) (*spice.Basket, error) {
	snapshot, err := s.baskets.Get(ctx, sessionID)
	if stderrors.Is(err, outbound.ErrBasketNotFound) {
		return spice.NewBasket(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load basket")
	}
	return spice.RestoreBasket(snapshot), nil
}

func (s *Service) save(ctx context.Context, sessionID string, basket *spice.Basket) error {
	if err := s.baskets.Save(ctx, sessionID, basket.Snapshot()); err != nil {
		return errors.Wrap(err, "failed to save basket")
	}
	return nil
}

func (s *Service) logEvents(sessionID string, events []shared.DomainEvent) {
	for _, event := range events {
		s.logger.Info("Basket event",
			zap.String("event", event.EventName()),
			zap.String("session_id", sessionID),
			zap.Time("at", event.OccurredAt()),
		)
	}
}
