package render

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-screentrack/frame"
	"github.com/swdee/go-screentrack/tracker"
	"gocv.io/x/gocv"
)

func TestCaption(t *testing.T) {
	obj := tracker.Object{Label: "FMCW-Radar-Output", Score: 0.87}
	assert.Equal(t, "87% FMCW-Radar-Output", Caption(obj))
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, classColors[1], ColorFor(1))
	assert.Equal(t, ColorFor(1), ColorFor(int64(1+len(classColors))))
	assert.Equal(t, ColorFor(3), ColorFor(-3))
}

func TestOverlayNotifications(t *testing.T) {

	o := NewOverlay(10)

	o.OnObjectAdded(tracker.Object{ID: 2, Label: "b", Score: 0.5,
		Box: tracker.NewRect(0, 0, 10, 10), Alive: true})
	o.OnObjectAdded(tracker.Object{ID: 1, Label: "a", Score: 0.9,
		Box: tracker.NewRect(0, 0, 10, 10), Alive: true})

	o.OnBoxUpdated(1, tracker.NewRect(30, 60, 90, 60))

	objs := o.Objects()
	require.Len(t, objs, 2)
	assert.Equal(t, int64(1), objs[0].ID)
	assert.Equal(t, "a", objs[0].Label)
	assert.Equal(t, tracker.NewRect(30, 60, 90, 60), objs[0].Box)
	assert.Equal(t, []tracker.Point{{75, 90}}, o.trail.GetPoints(1))

	o.OnObjectRemoved(1)
	assert.Len(t, o.Objects(), 1)
	assert.Nil(t, o.trail.GetPoints(1))

	// updates for unknown objects are still drawn
	o.OnBoxUpdated(5, tracker.NewRect(0, 0, 1, 1))
	assert.Len(t, o.Objects(), 2)
}

func TestOverlayAnnotate(t *testing.T) {

	o := NewOverlay(10)

	o.OnObjectAdded(tracker.Object{ID: 1, Label: "FMCW-Radar-Output", Score: 0.9,
		Box: tracker.NewRect(300, 300, 300, 300), Alive: true})

	for i := 0; i < 5; i++ {
		o.OnBoxUpdated(1, tracker.NewRect(300+float64(i)*30, 300, 300, 300))
	}

	img := gocv.NewMatWithSize(360, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	o.Annotate(&img, 3)

	// box outline drawn at the scaled position
	assert.Greater(t, gocv.CountNonZero(channel(t, img, 0)), 0)

	clr := ColorFor(1)
	px := img.GetVecbAt(120, 140)
	assert.Equal(t, []uint8{clr.B, clr.G, clr.R}, []uint8{px[0], px[1], px[2]})
}

// channel extracts a single channel of img
func channel(t *testing.T, img gocv.Mat, c int) gocv.Mat {
	t.Helper()

	channels := gocv.Split(img)

	for i := range channels {
		if i != c {
			channels[i].Close()
		}
	}

	t.Cleanup(func() { channels[c].Close() })

	return channels[c]
}

func TestEventsDropWhenFull(t *testing.T) {

	ev := NewEvents(2)

	ev.OnObjectAdded(tracker.Object{ID: 1})
	ev.OnBoxUpdated(1, tracker.NewRect(1, 2, 3, 4))
	ev.OnObjectRemoved(1)

	assert.Equal(t, uint64(1), ev.Dropped())

	first := <-ev.C()
	assert.Equal(t, ObjectAdded, first.Kind)
	assert.Equal(t, int64(1), first.Object.ID)

	second := <-ev.C()
	assert.Equal(t, BoxUpdated, second.Kind)
	assert.Equal(t, tracker.NewRect(1, 2, 3, 4), second.Box)
	assert.Equal(t, "removed", ObjectRemoved.String())
}

func TestStreamServesJPEG(t *testing.T) {

	store := frame.NewStore()
	defer store.Close()

	store.Publish(frame.New(gocv.NewMatWithSize(90, 160, gocv.MatTypeCV8UC3), 1, time.Now()))

	o := NewOverlay(0)
	o.OnObjectAdded(tracker.Object{ID: 1, Label: "x", Score: 1,
		Box: tracker.NewRect(10, 10, 40, 40), Alive: true})

	s := NewStream(store, o, 30)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest("GET", "/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame",
		rec.Header().Get("Content-Type"))

	body := rec.Body.Bytes()
	assert.True(t, bytes.HasPrefix(body, []byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n")))
	// JPEG start of image marker
	assert.True(t, bytes.Contains(body, []byte{0xFF, 0xD8, 0xFF}))

	// only the single published frame is streamed
	assert.Equal(t, 1, bytes.Count(body, []byte("--frame")))
}
