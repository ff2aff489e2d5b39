package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/swdee/go-screentrack/frame"
)

var (
	// ErrTrackerInit is returned when the visual tracker could not be
	// created or initialized, the track dies immediately
	ErrTrackerInit = errors.New("visual tracker init failed")
	// ErrTrackerLost is returned for a failed tracker update
	ErrTrackerLost = errors.New("visual tracker lost object")
)

// State represents the state of a tracking Engine
type State int

const (
	// Initializing is the state before the visual tracker has been started
	Initializing State = 0
	// Tracking is the state while the object is being followed
	Tracking State = 1
	// Dead is the terminal state once the object has been lost
	Dead State = 2
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Tracking:
		return "tracking"
	case Dead:
		return "dead"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FrameSource supplies frames to a running Engine
type FrameSource interface {
	// Wait blocks until a frame newer than the given sequence number is
	// available and returns it retained for the caller
	Wait(ctx context.Context, after uint64) (*frame.Frame, error)
}

// EngineParams configure an Engine
type EngineParams struct {
	// MaxMisses is the number of consecutive failed updates tolerated, the
	// track dies when this is exceeded
	MaxMisses int
	// Kalman holds the filter noise parameters
	Kalman KalmanParams
}

// Engine drives the tracking of a single object.  It owns its visual tracker
// and Kalman filter, only the object snapshot is shared with other
// goroutines.
type Engine struct {
	mu  sync.Mutex
	obj Object

	state  State
	params EngineParams
	// box is the tracked box at the resolution of the frames
	box       Rect
	newVisual Factory
	visual    VisualTracker
	kalman    *KalmanFilter
	notify    Notifier
	evict     func(id int64)
	// lastSeq is the sequence number of the last frame processed
	lastSeq uint64
	removed bool
}

// NewEngine returns an Engine for obj whose box is in capture resolution.
// Scale is the capture to frame resolution ratio of the frame the object
// was detected on.  Evict is called exactly once when the track dies.
func NewEngine(obj Object, scale float64, newVisual Factory, notify Notifier,
	evict func(id int64), params EngineParams) *Engine {

	if scale <= 0 {
		scale = 1
	}

	if notify == nil {
		notify = NopNotifier{}
	}

	obj.Alive = true
	obj.Misses = 0

	return &Engine{
		obj:       obj,
		state:     Initializing,
		params:    params,
		box:       obj.Box.Scale(1 / scale),
		newVisual: newVisual,
		kalman:    NewKalmanFilter(params.Kalman),
		notify:    notify,
		evict:     evict,
	}
}

// ID returns the identity of the tracked object
func (e *Engine) ID() int64 {
	return e.obj.ID
}

// Object returns a snapshot of the tracked object
func (e *Engine) Object() Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.obj
}

// State returns the current engine state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Run processes each new frame from frames until the track dies or ctx is
// cancelled.  Cycles are paced by frame publication so the engine never
// processes the same frame twice.
func (e *Engine) Run(ctx context.Context, frames FrameSource) {

	defer e.release()

	for {
		if ctx.Err() != nil {
			return
		}

		f, err := frames.Wait(ctx, e.lastSeq)

		if err != nil {
			return
		}

		e.lastSeq = f.Seq
		state := e.Step(f)
		f.Release()

		if state == Dead {
			return
		}
	}
}

// Step runs a single tracking cycle against f and returns the resulting
// state
func (e *Engine) Step(f *frame.Frame) State {

	switch e.State() {
	case Initializing:
		if err := e.start(f); err != nil {
			Logf("Object %d: %v", e.obj.ID, err)
			e.die()
		}

	case Tracking:
		if err := e.update(f); err != nil {
			e.miss(err)
		}
	}

	return e.State()
}

// start initializes the visual tracker on f and seeds the Kalman filter with
// the initial box position
func (e *Engine) start(f *frame.Frame) error {

	visual, err := e.newVisual()

	if err != nil {
		return fmt.Errorf("%w: %w", ErrTrackerInit, err)
	}

	e.visual = visual

	if ok := visual.Init(f.Mat, e.box.ToImage()); !ok {
		return fmt.Errorf("%w: box %v", ErrTrackerInit, e.box.ToImage())
	}

	e.kalman.Initiate(e.box.X, e.box.Y)

	e.mu.Lock()
	e.state = Tracking
	e.mu.Unlock()

	return nil
}

// update runs the visual tracker on f and fuses its result with the Kalman
// filter
func (e *Engine) update(f *frame.Frame) error {

	rect, ok := e.visual.Update(f.Mat)

	if !ok {
		return ErrTrackerLost
	}

	measured := RectFromImage(rect)

	if err := e.kalman.Correct(measured.X, measured.Y); err != nil {
		return fmt.Errorf("%w: %w", ErrTrackerLost, err)
	}

	px, py := e.kalman.Predict()
	e.box = NewRect(px, py, measured.Width, measured.Height)
	box := e.box.Scale(f.Scale)

	e.mu.Lock()
	e.obj.Box = box
	e.obj.Misses = 0
	e.mu.Unlock()

	e.notify.OnBoxUpdated(e.obj.ID, box)

	return nil
}

// miss records a failed cycle and kills the track once the consecutive
// misses exceed the allowed maximum
func (e *Engine) miss(err error) {

	e.mu.Lock()
	e.obj.Misses++
	misses := e.obj.Misses
	e.mu.Unlock()

	if misses > e.params.MaxMisses {
		Logf("Object %d: %v, %d consecutive misses, removing", e.obj.ID, err, misses)
		e.die()
	}
}

// die moves the engine to its terminal state and asks for eviction
func (e *Engine) die() {

	e.mu.Lock()

	if e.state == Dead {
		e.mu.Unlock()
		return
	}

	e.state = Dead
	e.obj.Alive = false
	e.mu.Unlock()

	if e.evict != nil {
		e.evict(e.obj.ID)
	}

	e.notifyRemoved()
}

// notifyRemoved tells the notifier the object is gone, only once
func (e *Engine) notifyRemoved() {

	e.mu.Lock()
	removed := e.removed
	e.removed = true
	e.mu.Unlock()

	if !removed {
		e.notify.OnObjectRemoved(e.obj.ID)
	}
}

// release frees the visual tracker when the engine stops for any reason
func (e *Engine) release() {

	e.mu.Lock()
	e.obj.Alive = false
	e.mu.Unlock()

	if e.visual != nil {
		_ = e.visual.Close()
		e.visual = nil
	}

	e.notifyRemoved()
}
