package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-screentrack/tracker"
	"gocv.io/x/gocv"
)

// boxLabel holds the details of a label drawn above a box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// Caption returns the label text drawn above a tracked object, the score as a
// percentage followed by the label
func Caption(obj tracker.Object) string {
	return fmt.Sprintf("%.0f%% %s", obj.Score*100, obj.Label)
}

// ObjectBoxes renders the bounding boxes of tracked objects.  Object boxes
// are in capture resolution and are divided by scale to match img.
func ObjectBoxes(img *gocv.Mat, objs []tracker.Object, scale float64,
	font Font, lineThickness int) {

	if scale <= 0 {
		scale = 1
	}

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(objs))

	for _, obj := range objs {

		rect := obj.Box.Scale(1 / scale).ToImage()
		boxLeft, boxTop, boxRight := rect.Min.X, rect.Min.Y, rect.Max.X

		useClr := ColorFor(obj.ID)

		gocv.Rectangle(img, rect, useClr, lineThickness)

		text := Caption(obj)
		textSize := font.TextSize(text)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (boxLeft + boxRight) / 2

		case Right:
			centerX = boxRight - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = boxLeft + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		labelPosition := image.Pt(centerX-textSize.X/2, boxTop-font.BottomPad)

		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			boxTop-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, boxTop)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		})
	}

	// draw labels last so they are the top most layer and don't get
	// overlapped by neighbouring boxes
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)
		font.PutText(img, box.text, box.textPos, box.clr)
	}
}
