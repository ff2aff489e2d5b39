package capture

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/gift"
	"gocv.io/x/gocv"

	// image decoders
	_ "image/jpeg"
	_ "image/png"
)

// ImageSource returns the same still image on every capture, used for
// replaying a saved screenshot
type ImageSource struct {
	mat gocv.Mat
}

// NewImageSource crops img to the region and holds it as the frame.  A zero
// region keeps the whole image.
func NewImageSource(img image.Image, region Region) (*ImageSource, error) {

	if region.Width > 0 && region.Height > 0 {
		rect := region.Rect().Add(img.Bounds().Min).Intersect(img.Bounds())

		if rect.Empty() {
			return nil, fmt.Errorf("%w: %s outside image %v", ErrInvalidRegion,
				region, img.Bounds())
		}

		g := gift.New(gift.Crop(rect))
		dst := image.NewRGBA(g.Bounds(img.Bounds()))
		g.Draw(dst, img)
		img = dst
	}

	mat, err := gocv.ImageToMatRGB(img)

	if err != nil {
		return nil, fmt.Errorf("error converting image: %w", err)
	}

	return &ImageSource{mat: mat}, nil
}

// OpenImage reads a PNG or JPEG screenshot from file
func OpenImage(file string, region Region) (*ImageSource, error) {

	fh, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening image: %w", err)
	}

	defer fh.Close()

	img, _, err := image.Decode(fh)

	if err != nil {
		return nil, fmt.Errorf("error decoding image %s: %w", file, err)
	}

	return NewImageSource(img, region)
}

// Capture returns a copy of the image
func (s *ImageSource) Capture() (gocv.Mat, error) {
	if s.mat.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}
	return s.mat.Clone(), nil
}

// Close frees the image
func (s *ImageSource) Close() error {
	return s.mat.Close()
}
