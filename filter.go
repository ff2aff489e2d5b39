package screentrack

import (
	"image"

	"github.com/swdee/go-screentrack/frame"
	"github.com/swdee/go-screentrack/postprocess"
)

// Reason is the outcome of the acceptance filter
type Reason int

const (
	// Accepted detections become tracked objects
	Accepted Reason = iota
	// RejectLabel is a label missing from the allow list
	RejectLabel
	// RejectScore is a confidence below the score threshold
	RejectScore
	// RejectArea is a box larger than the maximum area
	RejectArea
	// RejectColor is a box which is not predominantly red
	RejectColor
)

func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectLabel:
		return "label"
	case RejectScore:
		return "score"
	case RejectArea:
		return "area"
	case RejectColor:
		return "color"
	}
	return "unknown"
}

// AcceptanceFilter decides which detections are tracked.  Checks are applied
// in the order label, score, area then color and only depend on the config
// and the frame the detection was made on.
type AcceptanceFilter struct {
	allow          map[string]struct{}
	scoreThreshold float64
	maxBoxArea     float64
	redThreshold   float64
}

// NewAcceptanceFilter returns a filter for the given config
func NewAcceptanceFilter(cfg Config) *AcceptanceFilter {

	allow := make(map[string]struct{}, len(cfg.LabelAllowList))

	for _, label := range cfg.LabelAllowList {
		allow[label] = struct{}{}
	}

	return &AcceptanceFilter{
		allow:          allow,
		scoreThreshold: cfg.ScoreThreshold,
		maxBoxArea:     cfg.MaxBoxArea,
		redThreshold:   cfg.RedThreshold,
	}
}

// Accept runs the detection through the filter checks returning the first
// failed check or Accepted
func (a *AcceptanceFilter) Accept(det postprocess.DetectResult, f *frame.Frame) (bool, Reason) {

	if len(a.allow) > 0 {
		if _, ok := a.allow[det.Label]; !ok {
			return false, RejectLabel
		}

		// an allow list accepts scores equal to the threshold
		if det.Probability < a.scoreThreshold {
			return false, RejectScore
		}

	} else if det.Probability <= a.scoreThreshold {
		return false, RejectScore
	}

	srcW, srcH := f.SourceSize()

	if det.Box.Area(srcW, srcH) > a.maxBoxArea {
		return false, RejectArea
	}

	if !a.isRed(det.Box, f) {
		return false, RejectColor
	}

	return true, Accepted
}

// isRed checks the mean color of the box region on the frame is red enough
// and dominated by the red channel
func (a *AcceptanceFilter) isRed(box postprocess.NormBox, f *frame.Frame) bool {

	bounds := image.Rect(0, 0, f.Width(), f.Height())
	roi := box.Rect(float64(f.Width()), float64(f.Height())).ToImage().Intersect(bounds)

	if roi.Empty() {
		return false
	}

	region := f.Mat.Region(roi)
	defer region.Close()

	// frames are BGR
	mean := region.Mean()
	blue, green, red := mean.Val1, mean.Val2, mean.Val3

	return red >= a.redThreshold && red > green && red > blue
}
