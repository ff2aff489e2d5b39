package tracker

import (
	"image"
	"math"
)

// Rect represents a bounding box in top, left, width, height format
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float64) Rect {
	return Rect{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// RectFromImage converts an image.Rectangle to a Rect
func RectFromImage(r image.Rectangle) Rect {
	return NewRect(float64(r.Min.X), float64(r.Min.Y),
		float64(r.Dx()), float64(r.Dy()))
}

// TLX returns the top-left x coordinate of the rectangle
func (r Rect) TLX() float64 {
	return r.X
}

// TLY returns the top-left y coordinate of the rectangle
func (r Rect) TLY() float64 {
	return r.Y
}

// BRX returns the bottom-right x coordinate of the rectangle
func (r Rect) BRX() float64 {
	return r.X + r.Width
}

// BRY returns the bottom-right y coordinate of the rectangle
func (r Rect) BRY() float64 {
	return r.Y + r.Height
}

// Center returns the center point of the rectangle
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the area of the rectangle
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Scale multiplies all coordinates by the given factor, used to move a box
// between detection and capture resolution
func (r Rect) Scale(f float64) Rect {
	return NewRect(r.X*f, r.Y*f, r.Width*f, r.Height*f)
}

// ToImage rounds the rectangle to whole pixels
func (r Rect) ToImage() image.Rectangle {
	x := int(math.Round(r.X))
	y := int(math.Round(r.Y))

	return image.Rect(x, y,
		x+int(math.Round(r.Width)), y+int(math.Round(r.Height)))
}
