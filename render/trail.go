package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-screentrack/tracker"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail draws the center point history of tracked objects.  Points are in
// capture resolution and are divided by scale to match img.
func Trail(img *gocv.Mat, objs []tracker.Object, trail *tracker.Trail,
	scale float64, style TrailStyle) {

	if scale <= 0 {
		scale = 1
	}

	for _, obj := range objs {

		objClr := ColorFor(obj.ID)

		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		points := trail.GetPoints(obj.ID)

		if len(points) <= 2 {
			continue
		}

		for i := 1; i < len(points); i++ {
			prev := scalePoint(points[i-1], scale)
			cur := scalePoint(points[i], scale)

			gocv.Line(img, prev, cur, lineClr, style.LineThickness)

			if i == len(points)-1 {
				// center point circle on current box
				gocv.Circle(img, cur, style.CircleRadius, circleClr, -1)
			}
		}
	}
}

func scalePoint(p tracker.Point, scale float64) image.Point {
	return image.Pt(int(float64(p.X)/scale), int(float64(p.Y)/scale))
}
