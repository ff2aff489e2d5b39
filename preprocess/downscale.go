package preprocess

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// DownscaleSize calculates the dimensions an image of width x height is
// reduced to so its longest side does not exceed maxSize.  The returned scale
// is the ratio of the source to the reduced resolution, images already within
// maxSize are kept at their size with a scale of 1.
func DownscaleSize(width, height, maxSize int) (int, int, float64) {

	longest := width

	if height > longest {
		longest = height
	}

	if maxSize <= 0 || longest <= maxSize {
		return width, height, 1.0
	}

	scale := float64(longest) / float64(maxSize)

	w := int(math.Round(float64(width) / scale))
	h := int(math.Round(float64(height) / scale))

	return w, h, scale
}

// Downscale reduces src into dst so its longest side does not exceed maxSize
// and returns the source to destination scale.  When no reduction is needed
// src is copied to dst unchanged.
func Downscale(src gocv.Mat, dst *gocv.Mat, maxSize int) float64 {

	w, h, scale := DownscaleSize(src.Cols(), src.Rows(), maxSize)

	if scale == 1.0 {
		src.CopyTo(dst)
		return scale
	}

	gocv.Resize(src, dst, image.Pt(w, h), 0, 0, gocv.InterpolationArea)

	return scale
}
