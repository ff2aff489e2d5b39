package screentrack

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swdee/go-screentrack/frame"
	"github.com/swdee/go-screentrack/postprocess"
	"github.com/swdee/go-screentrack/tracker"
	"gocv.io/x/gocv"
)

var (
	bgrRed  = gocv.NewScalar(0, 0, 255, 0)
	bgrGray = gocv.NewScalar(200, 200, 200, 0)
)

// fakeSource returns solid color frames of a fixed size
type fakeSource struct {
	width, height int
	color         gocv.Scalar
	fail          atomic.Bool
	calls         atomic.Int32
}

func (s *fakeSource) Capture() (gocv.Mat, error) {
	s.calls.Add(1)

	if s.fail.Load() {
		return gocv.NewMat(), errors.New("screen locked")
	}

	return gocv.NewMatWithSizeFromScalar(s.color, s.height, s.width, gocv.MatTypeCV8UC3), nil
}

func (s *fakeSource) Close() error {
	return nil
}

// fakeDetector returns a fixed list of detections
type fakeDetector struct {
	mu    sync.Mutex
	dets  []postprocess.DetectResult
	err   error
	block chan struct{}
	calls int
}

func (d *fakeDetector) Detect(ctx context.Context, img gocv.Mat) ([]postprocess.DetectResult, error) {
	if d.block != nil {
		<-d.block
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++

	return d.dets, d.err
}

// loadingDetector is a fakeDetector which must be loaded first
type loadingDetector struct {
	fakeDetector
	loaded atomic.Bool
}

func (d *loadingDetector) Load(ctx context.Context) error {
	d.loaded.Store(true)
	return nil
}

// stillTracker is a visual tracker which reports the object has not moved,
// or loses it when fail is set
type stillTracker struct {
	box  image.Rectangle
	fail bool
}

func (s *stillTracker) Init(img gocv.Mat, box image.Rectangle) bool {
	s.box = box
	return true
}

func (s *stillTracker) Update(img gocv.Mat) (image.Rectangle, bool) {
	if s.fail {
		return image.Rectangle{}, false
	}
	return s.box, true
}

func (s *stillTracker) Close() error {
	return nil
}

func stillFactory(fail bool) tracker.Factory {
	return func() (tracker.VisualTracker, error) {
		return &stillTracker{fail: fail}, nil
	}
}

// radarDetection returns a detection centered on the frame
func radarDetection(score float64) postprocess.DetectResult {
	return postprocess.DetectResult{
		Label:       "FMCW-Radar-Output",
		Probability: score,
		Box:         postprocess.NormBox{CX: 0.5, CY: 0.5, Width: 0.1, Height: 0.1},
	}
}

// newFrame returns a solid color frame at the detection resolution of a full
// HD capture
func newFrame(color gocv.Scalar) *frame.Frame {
	mat := gocv.NewMatWithSizeFromScalar(color, 360, 640, gocv.MatTypeCV8UC3)
	return frame.New(mat, 3, time.Now())
}

// publishFrames keeps publishing frames to store until stop is closed
func publishFrames(store *frame.Store, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			store.Publish(newFrame(bgrRed))
		}
	}
}

// quietLogs mutes the loggers for the duration of a test
func quietLogs() func() {
	old := Logf
	SetLogger(nil)
	return func() { SetLogger(old) }
}
