// Package capture provides sources of frames for tracking, reading a region
// of the screen, a video stream or a static image.
package capture

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when a source produced no pixels
	ErrEmptyFrame = errors.New("empty frame captured")
	// ErrInvalidRegion is returned for a capture region with no area
	ErrInvalidRegion = errors.New("invalid capture region")
)

// Source produces BGR frames of a screen region
type Source interface {
	// Capture returns a new Mat owned by the caller, it must be closed even
	// when an error is returned
	Capture() (gocv.Mat, error)
	// Close frees the source
	Close() error
}

// Region is a rectangular area of the screen in pixels
type Region struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width" validate:"gt=0"`
	Height int `yaml:"height" validate:"gt=0"`
}

// Rect returns the region as an image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Validate checks the region has an area
func (r Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidRegion, r.Width, r.Height)
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// cropMat copies the region of src into a new Mat.  A region with no area or
// one extending past src is clipped to the src bounds.
func cropMat(src gocv.Mat, r Region) (gocv.Mat, error) {

	bounds := image.Rect(0, 0, src.Cols(), src.Rows())
	rect := bounds

	if r.Width > 0 && r.Height > 0 {
		rect = r.Rect().Intersect(bounds)
	}

	if rect.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: %s outside %dx%d", ErrInvalidRegion,
			r, src.Cols(), src.Rows())
	}

	if rect == bounds {
		return src.Clone(), nil
	}

	roi := src.Region(rect)
	defer roi.Close()

	return roi.Clone(), nil
}
