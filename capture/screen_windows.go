//go:build windows

package capture

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"github.com/disintegration/gift"
	"github.com/lxn/win"
	"gocv.io/x/gocv"
)

// ScreenSource captures a region of the desktop with GDI
type ScreenSource struct {
	mu     sync.Mutex
	region Region
	flip   *gift.GIFT
}

// NewScreenSource returns a source capturing the region of the desktop
func NewScreenSource(region Region) (Source, error) {

	if err := region.Validate(); err != nil {
		return nil, err
	}

	// screen coordinates must not be scaled on hi-dpi displays
	win.SetProcessDPIAware()

	return &ScreenSource{
		region: region,
		flip:   gift.New(gift.FlipVertical()),
	}, nil
}

// Capture grabs the region of the desktop
func (s *ScreenSource) Capture() (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := s.grab()

	if err != nil {
		return gocv.NewMat(), err
	}

	return gocv.ImageToMatRGB(img)
}

// grab copies the screen region into a bottom up DIB and returns it as an
// upright image
func (s *ScreenSource) grab() (image.Image, error) {

	width := s.region.Width
	height := s.region.Height

	dcSrc := win.GetDC(0)

	if dcSrc == 0 {
		return nil, fmt.Errorf("%w: error getting desktop device context", ErrEmptyFrame)
	}

	defer win.ReleaseDC(0, dcSrc)

	dcDst := win.CreateCompatibleDC(dcSrc)

	if dcDst == 0 {
		return nil, fmt.Errorf("%w: error creating compatible device context", ErrEmptyFrame)
	}

	defer win.DeleteDC(dcDst)

	header := win.BITMAPINFOHEADER{
		BiWidth:       int32(width),
		BiHeight:      int32(height),
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	header.BiSize = uint32(unsafe.Sizeof(header))

	var bits unsafe.Pointer

	bitmap := win.CreateDIBSection(dcDst, &header, win.DIB_RGB_COLORS, &bits, 0, 0)

	if bitmap == 0 {
		return nil, fmt.Errorf("%w: error creating bitmap", ErrEmptyFrame)
	}

	defer win.DeleteObject(win.HGDIOBJ(bitmap))

	old := win.SelectObject(dcDst, win.HGDIOBJ(bitmap))
	defer win.SelectObject(dcDst, old)

	if !win.BitBlt(dcDst, 0, 0, int32(width), int32(height), dcSrc,
		int32(s.region.X), int32(s.region.Y), win.SRCCOPY) {
		return nil, fmt.Errorf("%w: BitBlt failed for %s", ErrEmptyFrame, s.region)
	}

	raw := unsafe.Slice((*byte)(bits), width*height*4)

	// DIB pixels are BGRA
	pix := make([]byte, len(raw))

	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = raw[i+2], raw[i+1], raw[i], 255
	}

	src := &image.RGBA{Pix: pix, Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}
	dst := image.NewRGBA(src.Bounds())
	s.flip.Draw(dst, src)

	return dst, nil
}

// Close releases the source
func (s *ScreenSource) Close() error {
	return nil
}
