package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-screentrack/preprocess"
)

// buildOutput lays out anchors given as [cx, cy, w, h, scores...] in the
// channel major format of the model output
func buildOutput(anchors [][]float32) []float32 {
	channels := len(anchors[0])
	out := make([]float32, channels*len(anchors))

	for a, values := range anchors {
		for c, v := range values {
			out[c*len(anchors)+a] = v
		}
	}

	return out
}

func TestYOLOv8DetectObjects(t *testing.T) {

	resizer := preprocess.NewResizer(1280, 720, 640, 640)
	defer resizer.Close()

	yolo := NewYOLOv8(YOLOv8Params{
		BoxThreshold:    0.25,
		NMSThreshold:    0.45,
		ObjectClassNum:  2,
		MaxObjectNumber: 10,
	}, []string{"FMCW-Radar-Output", "other"})

	output := buildOutput([][]float32{
		{320, 320, 100, 50, 0.9, 0.1},
		// overlaps the first box and is suppressed
		{322, 321, 100, 50, 0.8, 0.0},
		// below box threshold
		{500, 500, 30, 30, 0.1, 0.2},
		{100, 200, 20, 20, 0.0, 0.7},
	})

	res, err := yolo.DetectObjects(output, resizer)
	require.NoError(t, err)

	dets := res.GetDetectResults()
	require.Len(t, dets, 2)

	assert.Equal(t, 0, dets[0].Class)
	assert.Equal(t, "FMCW-Radar-Output", dets[0].Label)
	assert.InDelta(t, 0.9, dets[0].Probability, 1e-6)
	assert.InDelta(t, 0.5, dets[0].Box.CX, 1e-5)
	assert.InDelta(t, 0.5, dets[0].Box.CY, 1e-5)
	assert.InDelta(t, 200.0/1280, dets[0].Box.Width, 1e-5)
	assert.InDelta(t, 100.0/720, dets[0].Box.Height, 1e-5)

	assert.Equal(t, 1, dets[1].Class)
	assert.Equal(t, "other", dets[1].Label)
	assert.InDelta(t, 200.0/1280, dets[1].Box.CX, 1e-5)
	assert.InDelta(t, 120.0/720, dets[1].Box.CY, 1e-5)
}

func TestYOLOv8RejectsBadOutput(t *testing.T) {

	resizer := preprocess.NewResizer(640, 640, 640, 640)
	defer resizer.Close()

	yolo := NewYOLOv8(YOLOv8DefaultParams(), nil)

	_, err := yolo.DetectObjects(make([]float32, 7), resizer)
	assert.Error(t, err)

	res, err := yolo.DetectObjects(make([]float32, 10), resizer)
	require.NoError(t, err)
	assert.Empty(t, res.GetDetectResults())
	assert.Equal(t, "class3", yolo.Label(3))
}

func TestNormBoxRect(t *testing.T) {

	box := NormBox{CX: 0.5, CY: 0.5, Width: 0.25, Height: 0.5}
	rect := box.Rect(640, 360)

	assert.InDelta(t, 240, rect.X, 1e-9)
	assert.InDelta(t, 90, rect.Y, 1e-9)
	assert.InDelta(t, 160, rect.Width, 1e-9)
	assert.InDelta(t, 180, rect.Height, 1e-9)
	assert.InDelta(t, 1920*1080*0.125, box.Area(1920, 1080), 1e-6)
}

func TestCalculateOverlap(t *testing.T) {

	assert.InDelta(t, 1.0, calculateOverlap(0, 0, 9, 9, 0, 0, 9, 9), 1e-6)
	assert.Equal(t, float32(0), calculateOverlap(0, 0, 9, 9, 20, 20, 29, 29))
}
