package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestDownscaleSize(t *testing.T) {

	tests := []struct {
		name          string
		width, height int
		maxSize       int
		expectedW     int
		expectedH     int
		expectedScale float64
	}{
		{"landscape full hd", 1920, 1080, 640, 640, 360, 3.0},
		{"portrait", 1080, 1920, 640, 360, 640, 3.0},
		{"already small", 640, 480, 640, 640, 480, 1.0},
		{"smaller than max", 320, 200, 640, 320, 200, 1.0},
		{"uneven ratio", 1000, 700, 640, 640, 448, 1.5625},
		{"disabled", 1920, 1080, 0, 1920, 1080, 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h, scale := DownscaleSize(tc.width, tc.height, tc.maxSize)

			assert.Equal(t, tc.expectedW, w)
			assert.Equal(t, tc.expectedH, h)
			assert.InDelta(t, tc.expectedScale, scale, 1e-9)
		})
	}
}

func TestDownscale(t *testing.T) {

	src := gocv.NewMatWithSize(1080, 1920, gocv.MatTypeCV8UC3)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	scale := Downscale(src, &dst, 640)

	assert.InDelta(t, 3.0, scale, 1e-9)
	assert.Equal(t, 640, dst.Cols())
	assert.Equal(t, 360, dst.Rows())

	small := gocv.NewMatWithSize(100, 200, gocv.MatTypeCV8UC3)
	defer small.Close()

	scale = Downscale(small, &dst, 640)

	assert.Equal(t, 1.0, scale)
	assert.Equal(t, 200, dst.Cols())
	assert.Equal(t, 100, dst.Rows())
}
