package render

import (
	"sync/atomic"

	"github.com/swdee/go-screentrack/tracker"
)

// EventKind is the type of a tracking Event
type EventKind int

const (
	ObjectAdded EventKind = iota
	BoxUpdated
	ObjectRemoved
)

func (k EventKind) String() string {
	switch k {
	case ObjectAdded:
		return "added"
	case BoxUpdated:
		return "updated"
	case ObjectRemoved:
		return "removed"
	}
	return "unknown"
}

// Event is a tracking notification
type Event struct {
	Kind EventKind
	ID   int64
	// Object is set for ObjectAdded events
	Object tracker.Object
	// Box is set for BoxUpdated events
	Box tracker.Rect
}

// Events delivers tracking notifications on a buffered channel.  When the
// reader falls behind events are dropped instead of blocking the tracking
// engines.
type Events struct {
	ch      chan Event
	dropped atomic.Uint64
}

// NewEvents returns an Events notifier buffering size events
func NewEvents(size int) *Events {
	return &Events{
		ch: make(chan Event, size),
	}
}

// C returns the channel events are delivered on
func (e *Events) C() <-chan Event {
	return e.ch
}

// Dropped returns the number of events discarded because the buffer was full
func (e *Events) Dropped() uint64 {
	return e.dropped.Load()
}

func (e *Events) send(ev Event) {
	select {
	case e.ch <- ev:
	default:
		e.dropped.Add(1)
	}
}

func (e *Events) OnObjectAdded(obj tracker.Object) {
	e.send(Event{Kind: ObjectAdded, ID: obj.ID, Object: obj})
}

func (e *Events) OnBoxUpdated(id int64, box tracker.Rect) {
	e.send(Event{Kind: BoxUpdated, ID: id, Box: box})
}

func (e *Events) OnObjectRemoved(id int64) {
	e.send(Event{Kind: ObjectRemoved, ID: id})
}
