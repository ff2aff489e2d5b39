package screentrack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-screentrack/frame"
)

func TestCaptureOnceDownscales(t *testing.T) {

	store := frame.NewStore()
	defer store.Close()

	src := &fakeSource{width: 1920, height: 1080, color: bgrRed}
	loop := NewCaptureLoop(src, store, DefaultConfig())

	require.NoError(t, loop.CaptureOnce())

	f := store.Acquire()
	require.NotNil(t, f)
	defer f.Release()

	assert.Equal(t, 640, f.Width())
	assert.Equal(t, 360, f.Height())
	assert.InDelta(t, 3.0, f.Scale, 1e-9)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, uint64(1), loop.Captured())
}

func TestCaptureOnceSmallRegion(t *testing.T) {

	store := frame.NewStore()
	defer store.Close()

	src := &fakeSource{width: 400, height: 300, color: bgrRed}
	loop := NewCaptureLoop(src, store, DefaultConfig())

	require.NoError(t, loop.CaptureOnce())

	f := store.Acquire()
	require.NotNil(t, f)
	defer f.Release()

	assert.Equal(t, 400, f.Width())
	assert.Equal(t, 1.0, f.Scale)
}

func TestCaptureOnceError(t *testing.T) {

	store := frame.NewStore()
	defer store.Close()

	src := &fakeSource{width: 1920, height: 1080, color: bgrRed}
	src.fail.Store(true)

	loop := NewCaptureLoop(src, store, DefaultConfig())

	err := loop.CaptureOnce()
	assert.ErrorIs(t, err, ErrCapture)
	assert.Nil(t, store.Acquire())
	assert.Equal(t, uint64(1), loop.Failures())
}

func TestCaptureRunRetries(t *testing.T) {

	defer quietLogs()()

	store := frame.NewStore()
	defer store.Close()

	cfg := DefaultConfig()
	cfg.CaptureBackoffMillis = 1
	cfg.MaxCaptureFPS = 200

	src := &fakeSource{width: 1920, height: 1080, color: bgrRed}
	src.fail.Store(true)

	loop := NewCaptureLoop(src, store, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		loop.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return loop.Failures() >= 3
	}, 2*time.Second, time.Millisecond)

	// recovers once the source works again
	src.fail.Store(false)

	require.Eventually(t, func() bool {
		return store.Seq() >= 2
	}, 2*time.Second, time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("capture loop did not stop")
	}
}
