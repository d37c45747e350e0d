// Package shared holds the event plumbing the aggregates embed.
package shared

import "time"

// Event is something an aggregate recorded while handling a command.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// AggregateRoot buffers events until the application layer pulls them.
type AggregateRoot struct {
	pending []Event
}

func (a *AggregateRoot) Record(e Event) {
	a.pending = append(a.pending, e)
}

// PullEvents hands over the buffered events and empties the buffer.
func (a *AggregateRoot) PullEvents() []Event {
	out := a.pending
	a.pending = nil
	return out
}

// BaseEvent is embedded by events for their timestamp.
type BaseEvent struct {
	At time.Time
}

func (e BaseEvent) OccurredAt() time.Time { return e.At }

// Now stamps a BaseEvent with the current time.
func Now() BaseEvent { return BaseEvent{At: time.Now()} }
