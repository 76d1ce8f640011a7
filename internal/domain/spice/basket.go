package spice

import (
	"time"

	"github.com/spiceshelf/shelf/internal/domain/shared"
)

// Basket is a session's selection: an insertion-ordered set of spice names
// plus whether the user has asked for results.
type Basket struct {
	shared.AggregateRoot

	items           []string
	searchTriggered bool
}

// BasketSnapshot is the persisted form of a Basket.
type BasketSnapshot struct {
	Spices          []string `json:"spices"`
	SearchTriggered bool     `json:"search_triggered"`
}

// NewBasket returns an empty basket.
func NewBasket() *Basket {
	return &Basket{}
}

// RestoreBasket rebuilds a basket from a snapshot. Duplicate names in the
// snapshot collapse to their first occurrence. No events are recorded.
func RestoreBasket(s BasketSnapshot) *Basket {
	b := &Basket{searchTriggered: s.SearchTriggered}
	for _, name := range s.Spices {
		if !b.Contains(name) {
			b.items = append(b.items, name)
		}
	}
	return b
}

// Add appends name if it is not already in the basket and reports whether
// the basket changed.
func (b *Basket) Add(name string) bool {
	if b.Contains(name) {
		return false
	}
	b.items = append(b.items, name)
	b.Record(SpiceAddedEvent{Spice: name, Position: len(b.items), At: time.Now()})
	return true
}

// Clear empties the basket and hides results.
func (b *Basket) Clear() {
	removed := len(b.items)
	b.items = nil
	b.searchTriggered = false
	b.Record(BasketClearedEvent{Removed: removed, At: time.Now()})
}

// TriggerSearch marks the basket as searched. An empty basket is allowed.
func (b *Basket) TriggerSearch() {
	b.searchTriggered = true
	b.Record(SearchTriggeredEvent{Spices: b.Items(), At: time.Now()})
}

// Contains reports whether name is in the basket.
func (b *Basket) Contains(name string) bool {
	for _, item := range b.items {
		if item == name {
			return true
		}
	}
	return false
}

// Items returns the selected names in first-insertion order.
func (b *Basket) Items() []string {
	out := make([]string, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of selected spices.
func (b *Basket) Len() int { return len(b.items) }

// IsEmpty reports whether nothing is selected.
func (b *Basket) IsEmpty() bool { return len(b.items) == 0 }

// SearchTriggered reports whether results should be shown.
func (b *Basket) SearchTriggered() bool { return b.searchTriggered }

// Snapshot captures the basket for persistence.
func (b *Basket) Snapshot() BasketSnapshot {
	return BasketSnapshot{Spices: b.Items(), SearchTriggered: b.searchTriggered}
}
