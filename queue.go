package midi

import (
	"sort"
)

// The number of events a queue can hold before it first grows.
const defaultQueueCapacity = 16

// An append-only list of events, sorted by offset once all input has been
// parsed.
type EventQueue struct {
	events []Event
}

// Returns a new, empty, queue with room for the given number of events. A
// capacity of 0 uses a small default.
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &EventQueue{
		events: make([]Event, 0, capacity),
	}
}

// Adds an event to the end of the queue. The backing array grows by half its
// size whenever it fills up.
func (q *EventQueue) Append(ev Event) {
	if len(q.events) == cap(q.events) {
		newCap := cap(q.events) + cap(q.events)/2
		if newCap <= cap(q.events) {
			newCap = cap(q.events) + 1
		}
		grown := make([]Event, len(q.events), newCap)
		copy(grown, q.events)
		q.events = grown
	}
	q.events = append(q.events, ev)
}

// Returns the number of events in the queue.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Returns the number of events the queue can hold before growing.
func (q *EventQueue) Cap() int {
	return cap(q.events)
}

// Returns the queued events. The slice must not be modified by the caller.
func (q *EventQueue) Events() []Event {
	return q.events
}

// Sorts the events by ascending offset. Events with equal offsets stay in the
// order they were appended, so a note that ends on the same tick another one
// starts is turned off first.
func (q *EventQueue) Sort() {
	sort.SliceStable(q.events, func(a, b int) bool {
		return q.events[a].Offset() < q.events[b].Offset()
	})
}
