// Package frame holds captured screen frames and the store used to publish
// them to concurrent consumers.
package frame

import (
	"math"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// Frame is a captured image at detection resolution.  A Frame is immutable
// once published, consumers that need to keep it past a cycle must Retain it
// and Release it when done.
type Frame struct {
	// Mat holds the pixel data in BGR order
	Mat gocv.Mat
	// Scale is the ratio of the capture resolution to the resolution of Mat
	Scale float64
	// Seq is the sequence number assigned by the Store on publish
	Seq uint64
	// Time the frame was captured
	Time time.Time
	// refs is the number of holders of the frame, the Mat is closed when it
	// drops to zero
	refs atomic.Int32
}

// New wraps the given Mat in a Frame holding a single reference which is
// owned by the caller
func New(mat gocv.Mat, scale float64, captured time.Time) *Frame {
	if scale <= 0 {
		scale = 1
	}

	f := &Frame{
		Mat:   mat,
		Scale: scale,
		Time:  captured,
	}

	f.refs.Store(1)

	return f
}

// Retain adds a reference to the frame
func (f *Frame) Retain() *Frame {
	f.refs.Add(1)
	return f
}

// Release drops a reference to the frame and frees the pixel buffer once
// the last reference is gone
func (f *Frame) Release() {
	if f.refs.Add(-1) == 0 {
		f.Mat.Close()
	}
}

// Width returns the width of the frame in pixels
func (f *Frame) Width() int {
	return f.Mat.Cols()
}

// Height returns the height of the frame in pixels
func (f *Frame) Height() int {
	return f.Mat.Rows()
}

// SourceSize returns the dimensions of the frame at capture resolution
func (f *Frame) SourceSize() (width, height float64) {
	return math.Round(float64(f.Width()) * f.Scale),
		math.Round(float64(f.Height()) * f.Scale)
}
