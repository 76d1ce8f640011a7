package spice

import "time"

// SpiceAddedEvent is raised when a spice enters the basket.
type SpiceAddedEvent struct {
	Spice    string
	Position int
	At       time.Time
}

func (e SpiceAddedEvent) EventName() string {
	return "basket.spice_added"
}

func (e SpiceAddedEvent) OccurredAt() time.Time {
	return e.At
}

// BasketClearedEvent is raised when the basket is emptied.
type BasketClearedEvent struct {
	Removed int
	At      time.Time
}

func (e BasketClearedEvent) EventName() string {
	return "basket.cleared"
}

func (e BasketClearedEvent) OccurredAt() time.Time {
	return e.At
}

// SearchTriggeredEvent is raised when the user asks for matching dishes.
type SearchTriggeredEvent struct {
	Spices []string
	At     time.Time
}

func (e SearchTriggeredEvent) EventName() string {
	return "basket.search_triggered"
}

func (e SearchTriggeredEvent) OccurredAt() time.Time {
	return e.At
}
