package screentrack

import (
	"sync/atomic"

	"github.com/swdee/go-screentrack/frame"
	"github.com/swdee/go-screentrack/tracker"
)

// SharedState is the state shared by the capture, detection and tracking
// goroutines.  The frame and its detection scale are published together
// through the frame store, the registry guards the tracked objects and the
// config is read only.
type SharedState struct {
	// Config is the engine configuration
	Config Config
	// Frames holds the most recent captured frame
	Frames *frame.Store
	// Registry holds the tracked objects
	Registry *Registry
	// ready is set once the detector has finished loading
	ready atomic.Bool
}

// NewSharedState returns the shared state for the given config
func NewSharedState(cfg Config, frames *frame.Store, registry *Registry) *SharedState {
	return &SharedState{
		Config:   cfg,
		Frames:   frames,
		Registry: registry,
	}
}

// SetDetectionReady marks the detector as loaded
func (s *SharedState) SetDetectionReady(ready bool) {
	s.ready.Store(ready)
}

// DetectionReady returns true once the detector can be used
func (s *SharedState) DetectionReady() bool {
	return s.ready.Load()
}

// CurrentFrame returns the latest frame retained for the caller, who must
// Release it, or nil if nothing has been captured yet
func (s *SharedState) CurrentFrame() *frame.Frame {
	return s.Frames.Acquire()
}

// DetectionScale returns the capture to detection resolution ratio of the
// latest frame, 1 before the first capture
func (s *SharedState) DetectionScale() float64 {

	f := s.Frames.Acquire()

	if f == nil {
		return 1
	}

	defer f.Release()

	return f.Scale
}

// TrackedObjects returns a snapshot of the live tracked objects
func (s *SharedState) TrackedObjects() []tracker.Object {
	return s.Registry.Snapshot()
}
