package postprocess

import "github.com/swdee/go-screentrack/tracker"

// DetectionResult is implemented by the result of a detection model post
// processor
type DetectionResult interface {
	GetDetectResults() []DetectResult
}

// NormBox is a bounding box as center x, center y, width and height
// normalized to [0,1] relative to the image the detection ran on
type NormBox struct {
	CX     float64
	CY     float64
	Width  float64
	Height float64
}

// Rect denormalizes the box onto an image of the given size returning it in
// top, left, width, height pixel format
func (b NormBox) Rect(width, height float64) tracker.Rect {
	w := b.Width * width
	h := b.Height * height

	return tracker.NewRect(b.CX*width-w/2, b.CY*height-h/2, w, h)
}

// Area returns the box area in pixels on an image of the given size
func (b NormBox) Area(width, height float64) float64 {
	return b.Width * width * b.Height * height
}

// DetectResult defines the attributes of a single object detected
type DetectResult struct {
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int
	// Label is the class name
	Label string
	// Box is the normalized location of the object
	Box NormBox
	// Probability is the confidence score of the object detected
	Probability float64
}
