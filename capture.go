package screentrack

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/swdee/go-screentrack/capture"
	"github.com/swdee/go-screentrack/frame"
	"github.com/swdee/go-screentrack/preprocess"
	"gocv.io/x/gocv"
)

// CaptureLoop grabs frames from a source, reduces them to the detection
// resolution and publishes them to the frame store.  It is the only writer
// of frames.
type CaptureLoop struct {
	source  capture.Source
	store   *frame.Store
	maxSize int
	// backoff is the wait after a failed capture
	backoff time.Duration
	// interval is the minimum time between captures
	interval time.Duration

	captured atomic.Uint64
	failures atomic.Uint64
}

// NewCaptureLoop returns a capture loop publishing to store
func NewCaptureLoop(source capture.Source, store *frame.Store, cfg Config) *CaptureLoop {
	return &CaptureLoop{
		source:   source,
		store:    store,
		maxSize:  cfg.DetectionResolution,
		backoff:  cfg.CaptureBackoff(),
		interval: cfg.CaptureInterval(),
	}
}

// CaptureOnce captures and publishes a single frame
func (c *CaptureLoop) CaptureOnce() error {

	captured := time.Now()
	img, err := c.source.Capture()

	if err != nil {
		img.Close()
		c.failures.Add(1)
		return fmt.Errorf("%w: %w", ErrCapture, err)
	}

	defer img.Close()

	if img.Empty() {
		c.failures.Add(1)
		return fmt.Errorf("%w: %w", ErrCapture, capture.ErrEmptyFrame)
	}

	dst := gocv.NewMat()
	scale := preprocess.Downscale(img, &dst, c.maxSize)

	c.store.Publish(frame.New(dst, scale, captured))
	c.captured.Add(1)

	return nil
}

// Run captures frames until ctx is cancelled.  Capture errors are logged and
// retried after the backoff.
func (c *CaptureLoop) Run(ctx context.Context) {

	for {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		wait := time.Duration(0)

		if err := c.CaptureOnce(); err != nil {
			Logf("Capture error: %v", err)
			wait = c.backoff

		} else if c.interval > 0 {
			wait = c.interval - time.Since(start)
		}

		if wait <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// Captured returns the number of frames published
func (c *CaptureLoop) Captured() uint64 {
	return c.captured.Load()
}

// Failures returns the number of failed captures
func (c *CaptureLoop) Failures() uint64 {
	return c.failures.Load()
}
