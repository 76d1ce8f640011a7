// Package inbound defines the use cases the shelf exposes to its web, API and
// CLI adapters.
package inbound

import (
	"context"

	"github.com/spiceshelf/shelf/internal/domain/spice"
)

// ShelfService covers the user actions of the spice shelf page.
type ShelfService interface {
	// Commands
	AddSpice(ctx context.Context, sessionID, name string) (bool, error)
	ClearBasket(ctx context.Context, sessionID string) error
	TriggerSearch(ctx context.Context, sessionID string) error
	DiscardSession(ctx context.Context, sessionID string) error

	// Queries
	View(ctx context.Context, sessionID string) (*ShelfView, error)
	Match(ctx context.Context, spices []string) ([]spice.Dish, error)
	Spices(ctx context.Context) []spice.Spice
}

// ShelfView is everything one page render needs.
type ShelfView struct {
	Spices          []spice.Spice
	Basket          []string
	SearchTriggered bool
	// Results is nil unless SearchTriggered.
	Results []spice.Dish
}

// ResultCount returns the number of matching dishes.
func (v *ShelfView) ResultCount() int {
	return len(v.Results)
}
