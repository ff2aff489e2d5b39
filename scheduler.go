package screentrack

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/swdee/go-screentrack/postprocess"
	"gocv.io/x/gocv"
)

// Detector finds objects on a BGR image, boxes are normalized to the image
type Detector interface {
	Detect(ctx context.Context, img gocv.Mat) ([]postprocess.DetectResult, error)
}

// Loader is implemented by detectors which need loading before use.  Load
// is run in the background and detection starts once it returns.
type Loader interface {
	Load(ctx context.Context) error
}

// DetectionScheduler periodically runs the detector on the latest frame and
// admits accepted detections to the registry.  Only one detection runs at a
// time.
type DetectionScheduler struct {
	state    *SharedState
	detector Detector
	filter   *AcceptanceFilter
	interval time.Duration
	busy     atomic.Bool

	cycles   atomic.Uint64
	detected atomic.Uint64
	admitted atomic.Uint64
}

// NewDetectionScheduler returns a scheduler running detector every
// configured detection interval
func NewDetectionScheduler(state *SharedState, detector Detector) *DetectionScheduler {
	return &DetectionScheduler{
		state:    state,
		detector: detector,
		filter:   NewAcceptanceFilter(state.Config),
		interval: state.Config.DetectionInterval(),
	}
}

// RunOnce runs a single detection cycle and returns the number of objects
// admitted for tracking
func (d *DetectionScheduler) RunOnce(ctx context.Context) (int, error) {

	if !d.busy.CompareAndSwap(false, true) {
		return 0, ErrDetectionBusy
	}

	defer d.busy.Store(false)

	if !d.state.DetectionReady() {
		return 0, fmt.Errorf("%w: model not loaded", ErrDetectorUnavailable)
	}

	f := d.state.CurrentFrame()

	if f == nil {
		return 0, ErrNoFrame
	}

	defer f.Release()

	dets, err := d.detector.Detect(ctx, f.Mat)

	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
	}

	d.cycles.Add(1)
	d.detected.Add(uint64(len(dets)))

	admitted := 0

	for _, det := range dets {

		ok, reason := d.filter.Accept(det, f)

		if !ok {
			Logf("Detection %s %.0f%% rejected by %s filter", det.Label,
				det.Probability*100, reason)
			continue
		}

		if id, ok := d.state.Registry.Admit(det, f); ok {
			Logf("Tracking object %d: %s %.0f%%", id, det.Label, det.Probability*100)
			admitted++
		}
	}

	d.admitted.Add(uint64(admitted))

	return admitted, nil
}

// Run starts a detection cycle every interval until ctx is cancelled.  A
// failed cycle is logged and skipped.
func (d *DetectionScheduler) Run(ctx context.Context) {

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			_, err := d.RunOnce(ctx)

			switch {
			case err == nil:
			case errors.Is(err, ErrNoFrame), errors.Is(err, context.Canceled):
			default:
				Logf("Detection cycle skipped: %v", err)
			}
		}
	}
}
