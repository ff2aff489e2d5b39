package tracker

import (
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// VisualTracker follows a single object from frame to frame.  It is satisfied
// by the gocv Tracker implementations.
type VisualTracker interface {
	// Init starts tracking the given box on img
	Init(img gocv.Mat, box image.Rectangle) bool
	// Update locates the object on img, returning false when it was lost
	Update(img gocv.Mat) (image.Rectangle, bool)
	// Close frees the tracker
	Close() error
}

// Factory creates a new VisualTracker, one is made per tracked object
type Factory func() (VisualTracker, error)

// Algorithm names a visual tracking algorithm
type Algorithm string

const (
	// MIL is the Multiple Instance Learning tracker
	MIL Algorithm = "mil"
	// KCF is the Kernelized Correlation Filter tracker
	KCF Algorithm = "kcf"
	// CSRT is the Discriminative Correlation Filter tracker with channel and
	// spatial reliability, slower than KCF but more accurate
	CSRT Algorithm = "csrt"
)

// ParseAlgorithm returns the Algorithm for the given name
func ParseAlgorithm(name string) (Algorithm, error) {

	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))

	switch alg {
	case MIL, KCF, CSRT:
		return alg, nil
	}

	return "", fmt.Errorf("unknown tracker algorithm: %s", name)
}

// NewVisualTracker creates a gocv tracker for the given algorithm
func NewVisualTracker(alg Algorithm) (VisualTracker, error) {

	switch alg {
	case MIL:
		return gocv.NewTrackerMIL(), nil
	case KCF:
		return contrib.NewTrackerKCF(), nil
	case CSRT:
		return contrib.NewTrackerCSRT(), nil
	}

	return nil, fmt.Errorf("unknown tracker algorithm: %s", alg)
}

// FactoryFor returns a Factory creating trackers of the given algorithm
func FactoryFor(alg Algorithm) Factory {
	return func() (VisualTracker, error) {
		return NewVisualTracker(alg)
	}
}
