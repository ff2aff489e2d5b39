package tracker

import "log"

// Logf is the package logger used by tracking engines
var Logf = log.Printf

// Notifier receives geometry updates from tracking engines.  Calls are made
// from the engine goroutines and must not block.
type Notifier interface {
	// OnBoxUpdated is called after every successful tracking cycle with the
	// box in capture resolution pixels
	OnBoxUpdated(id int64, box Rect)
	// OnObjectRemoved is called once when the object stops being tracked
	OnObjectRemoved(id int64)
}

// Announcer is implemented by notifiers that want to know about objects as
// soon as they are admitted
type Announcer interface {
	OnObjectAdded(obj Object)
}

// NopNotifier discards all notifications
type NopNotifier struct{}

func (NopNotifier) OnBoxUpdated(int64, Rect) {}
func (NopNotifier) OnObjectRemoved(int64)    {}

// Notifiers fans notifications out to several notifiers in order
type Notifiers []Notifier

// OnObjectAdded passes the object to every notifier that is an Announcer
func (n Notifiers) OnObjectAdded(obj Object) {
	for _, next := range n {
		if a, ok := next.(Announcer); ok {
			a.OnObjectAdded(obj)
		}
	}
}

func (n Notifiers) OnBoxUpdated(id int64, box Rect) {
	for _, next := range n {
		next.OnBoxUpdated(id, box)
	}
}

func (n Notifiers) OnObjectRemoved(id int64) {
	for _, next := range n {
		next.OnObjectRemoved(id)
	}
}
