package postprocess

import (
	"fmt"

	"github.com/swdee/go-screentrack/preprocess"
)

// YOLOv8 defines the struct for post processing the output of a YOLOv8 ONNX
// detection model
type YOLOv8 struct {
	// Params are the Model configuration parameters
	Params YOLOv8Params
	// labels are the class names indexed by class id
	labels []string
}

// YOLOv8Params defines the struct containing the YOLOv8 parameters to use
// for post processing operations
type YOLOv8Params struct {
	// BoxThreshold is the minimum probability score required for a bounding box
	// region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ObjectClassNum is the number of different object classes the Model has
	// been trained with
	ObjectClassNum int
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned
	MaxObjectNumber int
}

// YOLOv8DefaultParams returns YOLOv8Params for a single class model with a
// low box threshold, final score filtering is left to the caller
func YOLOv8DefaultParams() YOLOv8Params {
	return YOLOv8Params{
		BoxThreshold:    0.1,
		NMSThreshold:    0.45,
		ObjectClassNum:  1,
		MaxObjectNumber: 64,
	}
}

// NewYOLOv8 returns an instance of the YOLOv8 post processor.  Labels name
// each class id, missing names are reported as the class number.
func NewYOLOv8(p YOLOv8Params, labels []string) *YOLOv8 {
	return &YOLOv8{
		Params: p,
		labels: labels,
	}
}

// YOLOv8Result defines a struct used for object detection results
type YOLOv8Result struct {
	DetectResults []DetectResult
}

// GetDetectResults returns the object detection results
func (r YOLOv8Result) GetDetectResults() []DetectResult {
	return r.DetectResults
}

// Label returns the name of the class id
func (y *YOLOv8) Label(class int) string {
	if class >= 0 && class < len(y.labels) {
		return y.labels[class]
	}
	return fmt.Sprintf("class%d", class)
}

// DetectObjects decodes the model output tensor and returns the detections
// with boxes normalized to the source image of the resizer.  Output is laid
// out channel major as [4+classes][anchors], the first four channels
// holding the box center x, center y, width and height in model input pixels.
func (y *YOLOv8) DetectObjects(output []float32,
	resizer *preprocess.Resizer) (DetectionResult, error) {

	channels := 4 + y.Params.ObjectClassNum

	if len(output) == 0 || len(output)%channels != 0 {
		return nil, fmt.Errorf("output size %d is not a multiple of %d channels",
			len(output), channels)
	}

	anchors := len(output) / channels

	var filterBoxes []float32
	var objProbs []float32
	var classID []int

	for a := 0; a < anchors; a++ {

		maxClass := -1
		maxScore := float32(0)

		for c := 0; c < y.Params.ObjectClassNum; c++ {
			score := output[(4+c)*anchors+a]

			if score > maxScore {
				maxScore = score
				maxClass = c
			}
		}

		if maxClass < 0 || maxScore <= y.Params.BoxThreshold {
			continue
		}

		cx := output[a]
		cy := output[anchors+a]
		w := output[2*anchors+a]
		h := output[3*anchors+a]

		filterBoxes = append(filterBoxes, cx-w/2, cy-h/2, w, h)
		objProbs = append(objProbs, maxScore)
		classID = append(classID, maxClass)
	}

	validCount := len(objProbs)

	if validCount == 0 {
		// no object detected
		return YOLOv8Result{}, nil
	}

	indexArray := make([]int, validCount)

	for i := range indexArray {
		indexArray[i] = i
	}

	quickSortIndiceInverse(objProbs, 0, validCount-1, indexArray)

	classSet := make(map[int]bool)

	for _, id := range classID {
		classSet[id] = true
	}

	for c := range classSet {
		nms(validCount, filterBoxes, classID, indexArray, c, y.Params.NMSThreshold)
	}

	srcW := float32(resizer.SrcWidth())
	srcH := float32(resizer.SrcHeight())

	group := make([]DetectResult, 0)

	for i := 0; i < validCount; i++ {
		if indexArray[i] == -1 || len(group) >= y.Params.MaxObjectNumber {
			continue
		}

		n := indexArray[i]

		x1, y1 := resizer.ToSource(filterBoxes[n*4+0], filterBoxes[n*4+1])
		x2, y2 := resizer.ToSource(filterBoxes[n*4+0]+filterBoxes[n*4+2],
			filterBoxes[n*4+1]+filterBoxes[n*4+3])

		x1 = clamp(x1, 0, srcW)
		y1 = clamp(y1, 0, srcH)

		if x2 <= x1 || y2 <= y1 {
			continue
		}

		group = append(group, DetectResult{
			Class: classID[n],
			Label: y.Label(classID[n]),
			Box: NormBox{
				CX:     float64((x1 + x2) / 2 / srcW),
				CY:     float64((y1 + y2) / 2 / srcH),
				Width:  float64((x2 - x1) / srcW),
				Height: float64((y2 - y1) / srcH),
			},
			Probability: float64(objProbs[i]),
		})
	}

	return YOLOv8Result{
		DetectResults: group,
	}, nil
}
