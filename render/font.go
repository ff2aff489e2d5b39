package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
	// TTF is an optional TrueType face used instead of the Hershey font
	TTF font.Face
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// LoadTTF loads a TrueType font file and returns a face of the given point
// size
func LoadTTF(fontPath string, size float64) (font.Face, error) {

	fontBytes, err := os.ReadFile(fontPath)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return face, nil
}

// TextSize returns the width and height of text in pixels
func (f Font) TextSize(text string) image.Point {

	if f.TTF == nil {
		return gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
	}

	metrics := f.TTF.Metrics()

	return image.Pt(font.MeasureString(f.TTF, text).Ceil(),
		(metrics.Ascent + metrics.Descent).Ceil())
}

// PutText writes text with its baseline starting at pt
func (f Font) PutText(img *gocv.Mat, text string, pt image.Point, bg color.RGBA) {

	if f.TTF == nil {
		gocv.PutTextWithParams(img, text, pt, f.Face, f.Scale, f.Color,
			f.Thickness, f.LineType, false)
		return
	}

	if err := f.putTTFText(img, text, pt, bg); err != nil {
		// fall back to the built in font
		f.TTF = nil
		f.PutText(img, text, pt, bg)
	}
}

// putTTFText renders the text onto a patch filled with the bg color and
// copies the patch onto img
func (f Font) putTTFText(img *gocv.Mat, text string, pt image.Point, bg color.RGBA) error {

	size := f.TextSize(text)
	ascent := f.TTF.Metrics().Ascent.Ceil()

	patchRect := image.Rect(pt.X, pt.Y-ascent, pt.X+size.X, pt.Y-ascent+size.Y)
	clipped := patchRect.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))

	if clipped.Empty() {
		return nil
	}

	rgba := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(f.Color),
		Face: f.TTF,
		Dot: fixed.Point26_6{
			X: 0,
			Y: fixed.I(ascent),
		},
	}
	dr.DrawString(text)

	patch, err := gocv.NewMatFromBytes(size.Y, size.X, gocv.MatTypeCV8UC4, rgba.Pix)

	if err != nil {
		return fmt.Errorf("error creating Mat from RGBA: %w", err)
	}

	defer patch.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()

	gocv.CvtColor(patch, &bgr, gocv.ColorRGBAToBGR)

	src := bgr.Region(clipped.Sub(patchRect.Min))
	defer src.Close()

	dst := img.Region(clipped)
	defer dst.Close()

	src.CopyTo(&dst)

	return nil
}
