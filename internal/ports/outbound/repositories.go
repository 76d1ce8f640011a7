// Package outbound defines the interfaces the shelf application uses to reach
// storage and catalog sources.
package outbound

import (
	"context"
	"errors"

	"github.com/spiceshelf/shelf/internal/domain/spice"
)

// ErrBasketNotFound is returned by BasketRepository.Get for unknown sessions.
var ErrBasketNotFound = errors.New("basket not found")

// CatalogSource reads both catalog tables from a backing store.
type CatalogSource interface {
	Load(ctx context.Context) (*spice.Catalog, error)
	Describe() string
}

// CatalogProvider hands out the catalog currently in effect.
type CatalogProvider interface {
	Catalog() *spice.Catalog
}

// BasketRepository persists one basket per session.
type BasketRepository interface {
	Get(ctx context.Context, sessionID string) (spice.BasketSnapshot, error)
	Save(ctx context.Context, sessionID string, basket spice.BasketSnapshot) error
	Delete(ctx context.Context, sessionID string) error
}
