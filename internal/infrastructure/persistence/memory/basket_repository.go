// Package memory provides an in-memory basket repository
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spiceshelf/shelf/internal/domain/spice"
	"github.com/spiceshelf/shelf/internal/ports/outbound"
)

type basketItem struct {
	snapshot  spice.BasketSnapshot
	expiresAt time.Time
}

// BasketRepository keeps one snapshot per session in a map
type BasketRepository struct {
	data  map[string]basketItem
	ttl   time.Duration
	mutex sync.RWMutex
}

// NewBasketRepository creates an in-memory basket repository. Baskets expire
// after ttl without a Get or Save; a zero ttl keeps them until deleted.
func NewBasketRepository(ttl time.Duration) *BasketRepository {
	return &BasketRepository{
		data: make(map[string]basketItem),
		ttl:  ttl,
	}
}

var _ outbound.BasketRepository = (*BasketRepository)(nil)

// Get returns the stored snapshot for a session and pushes its expiry out by
// another ttl, matching the sliding session it belongs to. Expired entries
// are dropped here.
func (r *BasketRepository) Get(ctx context.Context, sessionID string) (spice.BasketSnapshot, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item, exists := r.data[sessionID]
	if !exists {
		return spice.BasketSnapshot{}, outbound.ErrBasketNotFound
	}
	now := time.Now()
	if r.expired(item, now) {
		delete(r.data, sessionID)
		return spice.BasketSnapshot{}, outbound.ErrBasketNotFound
	}
	if r.ttl > 0 {
		item.expiresAt = now.Add(r.ttl)
		r.data[sessionID] = item
	}
	return copySnapshot(item.snapshot), nil
}

// Save stores a snapshot and refreshes its expiry
func (r *BasketRepository) Save(ctx context.Context, sessionID string, basket spice.BasketSnapshot) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	item := basketItem{snapshot: copySnapshot(basket)}
	if r.ttl > 0 {
		item.expiresAt = time.Now().Add(r.ttl)
	}
	r.data[sessionID] = item
	return nil
}

// Delete removes a session's snapshot
func (r *BasketRepository) Delete(ctx context.Context, sessionID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.data, sessionID)
	return nil
}

// Len returns the number of stored baskets
func (r *BasketRepository) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.data)
}

func (r *BasketRepository) expired(item basketItem, now time.Time) bool {
	return !item.expiresAt.IsZero() && now.After(item.expiresAt)
}

func copySnapshot(s spice.BasketSnapshot) spice.BasketSnapshot {
	out := spice.BasketSnapshot{SearchTriggered: s.SearchTriggered}
	if s.Spices != nil {
		out.Spices = append([]string(nil), s.Spices...)
	}
	return out
}
