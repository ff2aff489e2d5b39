package screentrack

import "errors"

var (
	// ErrCapture is returned when a frame could not be captured, the capture
	// loop retries after a backoff
	ErrCapture = errors.New("capture failed")
	// ErrDetectorUnavailable is returned when the detector is not loaded yet
	// or failed, the detection cycle is skipped
	ErrDetectorUnavailable = errors.New("detector unavailable")
	// ErrCapacityExceeded is returned when the registry is full, the
	// detection is dropped
	ErrCapacityExceeded = errors.New("tracked object capacity exceeded")
	// ErrDetectionBusy is returned when a detection cycle is requested while
	// another is still running
	ErrDetectionBusy = errors.New("detection already in progress")
	// ErrNoFrame is returned when no frame has been captured yet
	ErrNoFrame = errors.New("no frame captured yet")
)
