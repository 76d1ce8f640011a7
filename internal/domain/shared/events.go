// Package shared holds building blocks used by more than one domain package.
package shared

import "time"

// DomainEvent represents something that happened to an aggregate.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// AggregateRoot buffers events raised by an aggregate until they are pulled.
type AggregateRoot struct {
	events []DomainEvent
}

// Record appends an event to the pending list.
func (a *AggregateRoot) Record(event DomainEvent) {
	a.events = append(a.events, event)
}

// PullEvents returns the pending events and empties the buffer.
func (a *AggregateRoot) PullEvents() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}
