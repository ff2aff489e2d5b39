package screentrack

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/swdee/go-screentrack/capture"
	"github.com/swdee/go-screentrack/frame"
	"github.com/swdee/go-screentrack/tracker"
)

// Options are the collaborators of an Engine
type Options struct {
	// Source captures the screen region
	Source capture.Source
	// Detector finds objects on frames, it is loaded in the background if it
	// implements Loader
	Detector Detector
	// Notifier receives box updates of tracked objects
	Notifier tracker.Notifier
	// NewVisual overrides the visual tracker selected by the config
	NewVisual tracker.Factory
}

// Stats are counters of the engine activity
type Stats struct {
	Captured        uint64
	CaptureFailures uint64
	Detections      uint64
	Detected        uint64
	Admitted        uint64
	Tracked         int
}

// Engine coordinates screen capture, periodic detection and per object
// tracking
type Engine struct {
	cfg       Config
	opts      Options
	state     *SharedState
	capture   *CaptureLoop
	scheduler *DetectionScheduler

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewEngine validates the config and returns an Engine ready to Start
func NewEngine(cfg Config, opts Options) (*Engine, error) {

	if cfg.ResetAllowListOnStart {
		cfg.LabelAllowList = nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.Source == nil {
		return nil, errors.New("capture source required")
	}

	if opts.Detector == nil {
		return nil, errors.New("detector required")
	}

	if opts.NewVisual == nil {
		alg, err := cfg.Algorithm()

		if err != nil {
			return nil, err
		}

		opts.NewVisual = tracker.FactoryFor(alg)
	}

	return &Engine{
		cfg:  cfg,
		opts: opts,
	}, nil
}

// Start launches the capture, detection and detector loading goroutines
func (e *Engine) Start(ctx context.Context) error {

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return errors.New("engine already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.started = true

	frames := frame.NewStore()

	registry := NewRegistry(ctx, frames, RegistryOptions{
		Capacity: e.cfg.MaxConcurrentObjects,
		Engine: tracker.EngineParams{
			MaxMisses: e.cfg.MaxTrackingMisses,
			Kalman:    e.cfg.KalmanParams(),
		},
		NewVisual: e.opts.NewVisual,
		Notifier:  e.opts.Notifier,
	})

	e.state = NewSharedState(e.cfg, frames, registry)
	e.capture = NewCaptureLoop(e.opts.Source, frames, e.cfg)
	e.scheduler = NewDetectionScheduler(e.state, e.opts.Detector)

	e.cfg.LogSettings()

	e.run(func() { e.capture.Run(ctx) })
	e.run(func() { e.scheduler.Run(ctx) })
	e.run(func() { e.load(ctx) })

	if iv := e.cfg.StatsInterval(); iv > 0 {
		e.run(func() { e.logStats(ctx, iv) })
	}

	return nil
}

// run starts fn in a goroutine tracked by the engine
func (e *Engine) run(fn func()) {
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()
		fn()
	}()
}

// load readies the detector in the background
func (e *Engine) load(ctx context.Context) {

	l, ok := e.opts.Detector.(Loader)

	if !ok {
		e.state.SetDetectionReady(true)
		return
	}

	Logf("Loading detection model, this may take a few seconds")
	start := time.Now()

	if err := l.Load(ctx); err != nil {
		Logf("Detector failed to load: %v", err)
		return
	}

	Logf("Detection model loaded in %v", time.Since(start))
	e.state.SetDetectionReady(true)
}

// logStats writes the engine counters every interval
func (e *Engine) logStats(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s := e.Stats()
			Logf("Frames: %d (%d failed), Detection cycles: %d, Detected: %d, "+
				"Admitted: %d, Tracking: %d", s.Captured, s.CaptureFailures,
				s.Detections, s.Detected, s.Admitted, s.Tracked)
		}
	}
}

// State returns the shared state, nil before Start
func (e *Engine) State() *SharedState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Scheduler returns the detection scheduler, nil before Start
func (e *Engine) Scheduler() *DetectionScheduler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduler
}

// Stats returns the engine counters
func (e *Engine) Stats() Stats {

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return Stats{}
	}

	return Stats{
		Captured:        e.capture.Captured(),
		CaptureFailures: e.capture.Failures(),
		Detections:      e.scheduler.cycles.Load(),
		Detected:        e.scheduler.detected.Load(),
		Admitted:        e.scheduler.admitted.Load(),
		Tracked:         e.state.Registry.Len(),
	}
}

// Stop cancels all goroutines and waits for them to exit, tracked objects
// are removed and the last frame freed
func (e *Engine) Stop() {

	e.mu.Lock()

	if !e.started || e.cancel == nil {
		e.mu.Unlock()
		return
	}

	cancel := e.cancel
	e.cancel = nil
	state := e.state
	e.mu.Unlock()

	cancel()
	e.wg.Wait()

	state.Registry.Close()
	state.Frames.Close()
}
