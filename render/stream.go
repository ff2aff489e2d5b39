package render

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/swdee/go-screentrack/frame"
	"gocv.io/x/gocv"
)

// Logf is the package logger
var Logf = log.Printf

// FrameSource supplies frames to the Stream
type FrameSource interface {
	Wait(ctx context.Context, after uint64) (*frame.Frame, error)
}

// Stream is an HTTP handler serving the annotated frames as an MJPEG stream
type Stream struct {
	frames  FrameSource
	overlay *Overlay
	// interval is the minimum time between streamed frames
	interval time.Duration
}

// NewStream returns a stream of frames annotated by overlay, limited to fps
// frames per second
func NewStream(frames FrameSource, overlay *Overlay, fps int) *Stream {

	if fps <= 0 {
		fps = 30
	}

	return &Stream{
		frames:   frames,
		overlay:  overlay,
		interval: time.Second / time.Duration(fps),
	}
}

// Encode annotates a copy of the frame and returns it JPEG encoded
func (s *Stream) Encode(f *frame.Frame) (*gocv.NativeByteBuffer, error) {

	resImg := f.Mat.Clone()
	defer resImg.Close()

	s.overlay.Annotate(&resImg, f.Scale)

	return gocv.IMEncode(".jpg", resImg)
}

// ServeHTTP streams frames to the client until it disconnects
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	Logf("New stream client %s", r.RemoteAddr)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	flusher, _ := w.(http.Flusher)
	ctx := r.Context()
	seq := uint64(0)

	for {
		start := time.Now()
		f, err := s.frames.Wait(ctx, seq)

		if err != nil {
			Logf("Stream client %s disconnected", r.RemoteAddr)
			return
		}

		seq = f.Seq
		buf, err := s.Encode(f)
		f.Release()

		if err != nil {
			Logf("Error encoding frame: %v", err)
			continue
		}

		_, err = w.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n"))

		if err == nil {
			_, err = w.Write(buf.GetBytes())
		}

		if err == nil {
			_, err = w.Write([]byte("\r\n"))
		}

		buf.Close()

		if err != nil {
			Logf("Stream client %s write error: %v", r.RemoteAddr, err)
			return
		}

		if flusher != nil {
			flusher.Flush()
		}

		// limit frame rate
		if wait := s.interval - time.Since(start); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}
