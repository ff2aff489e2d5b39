// Package detector runs YOLOv8 ONNX object detection models with the OpenCV
// DNN module.
package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/swdee/go-screentrack/postprocess"
	"github.com/swdee/go-screentrack/preprocess"
	"gocv.io/x/gocv"
)

// Logf is the package logger
var Logf = log.Printf

var (
	// ErrNotLoaded is returned when Detect is called before Load
	ErrNotLoaded = errors.New("detection model not loaded")
	// ErrEmptyNetwork is returned when the model file could not be read
	ErrEmptyNetwork = errors.New("failed to load network")
)

// Backend selects where inference runs
type Backend string

const (
	// BackendAuto tries CUDA and falls back to the CPU
	BackendAuto Backend = "auto"
	// BackendCUDA forces the CUDA backend
	BackendCUDA Backend = "cuda"
	// BackendCPU forces the CPU backend
	BackendCPU Backend = "cpu"
)

// letterbox padding color used by the YOLOv8 training pipeline
var padColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Info describes the loaded model
type Info struct {
	ModelFile string
	Backend   Backend
	InputSize int
	Classes   int
	LoadTime  time.Duration
}

// YOLO is an object detector for YOLOv8 ONNX models
type YOLO struct {
	modelFile string
	backend   Backend
	inputSize int
	labels    []string
	params    postprocess.YOLOv8Params

	mu      sync.Mutex
	net     gocv.Net
	loaded  bool
	yolo    *postprocess.YOLOv8
	resizer *preprocess.Resizer
	input   gocv.Mat
	info    Info
}

// NewYOLO returns a detector for the model file.  Labels name the model
// classes, inputSize is the square model input dimension.
func NewYOLO(modelFile string, labels []string, inputSize int,
	backend Backend, params postprocess.YOLOv8Params) *YOLO {

	if inputSize <= 0 {
		inputSize = 640
	}

	if backend == "" {
		backend = BackendAuto
	}

	if len(labels) > 0 {
		params.ObjectClassNum = len(labels)
	}

	return &YOLO{
		modelFile: modelFile,
		backend:   backend,
		inputSize: inputSize,
		labels:    labels,
		params:    params,
		input:     gocv.NewMat(),
	}
}

// Load reads the model and selects the inference backend.  It may take
// several seconds and is intended to be run in the background.
func (y *YOLO) Load(ctx context.Context) error {

	start := time.Now()

	switch y.backend {
	case BackendAuto:
		err := y.loadWith(BackendCUDA)

		if err == nil {
			break
		}

		Logf("CUDA backend unavailable, falling back to CPU: %v", err)

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := y.loadWith(BackendCPU); err != nil {
			return err
		}

	default:
		if err := y.loadWith(y.backend); err != nil {
			return err
		}
	}

	y.mu.Lock()
	y.info.LoadTime = time.Since(start)
	y.mu.Unlock()

	return nil
}

// loadWith reads the network onto the given backend and runs a test
// inference to make sure it works
func (y *YOLO) loadWith(backend Backend) error {

	net := gocv.ReadNetFromONNX(y.modelFile)

	if net.Empty() {
		net.Close()
		return fmt.Errorf("%w: %s", ErrEmptyNetwork, y.modelFile)
	}

	var err error

	if backend == BackendCUDA {
		if err = net.SetPreferableBackend(gocv.NetBackendCUDA); err == nil {
			err = net.SetPreferableTarget(gocv.NetTargetCUDA)
		}
	} else {
		if err = net.SetPreferableBackend(gocv.NetBackendDefault); err == nil {
			err = net.SetPreferableTarget(gocv.NetTargetCPU)
		}
	}

	if err != nil {
		net.Close()
		return fmt.Errorf("error setting %s backend: %w", backend, err)
	}

	classes, err := testInference(&net, y.inputSize)

	if err != nil {
		net.Close()
		return fmt.Errorf("test inference on %s failed: %w", backend, err)
	}

	params := y.params

	if classes != params.ObjectClassNum {
		Logf("Model has %d classes, %d labels given", classes, params.ObjectClassNum)
		params.ObjectClassNum = classes
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	if y.loaded {
		y.net.Close()
	}

	y.net = net
	y.loaded = true
	y.yolo = postprocess.NewYOLOv8(params, y.labels)
	y.info = Info{
		ModelFile: y.modelFile,
		Backend:   backend,
		InputSize: y.inputSize,
		Classes:   classes,
	}

	return nil
}

// testInference runs a blank image through the network and returns the
// number of classes found in the output shape
func testInference(net *gocv.Net, size int) (int, error) {

	img := gocv.NewMatWithSize(size, size, gocv.MatTypeCV8UC3)
	defer img.Close()

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	if output.Empty() {
		return 0, errors.New("empty output")
	}

	dims := output.Size()

	if len(dims) != 3 || dims[1] <= 4 {
		return 0, fmt.Errorf("unexpected output shape %v", dims)
	}

	return dims[1] - 4, nil
}

// Ready returns true once the model has been loaded
func (y *YOLO) Ready() bool {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.loaded
}

// Info returns details of the loaded model
func (y *YOLO) Info() Info {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.info
}

// Detect runs the model on a BGR image and returns the detections with boxes
// normalized to the image
func (y *YOLO) Detect(ctx context.Context, img gocv.Mat) ([]postprocess.DetectResult, error) {

	y.mu.Lock()
	defer y.mu.Unlock()

	if !y.loaded {
		return nil, ErrNotLoaded
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if y.resizer == nil || !y.resizer.Matches(img.Cols(), img.Rows()) {
		if y.resizer != nil {
			y.resizer.Close()
		}

		y.resizer = preprocess.NewResizer(img.Cols(), img.Rows(),
			y.inputSize, y.inputSize)
	}

	y.resizer.LetterBoxResize(img, &y.input, padColor)

	blob := gocv.BlobFromImage(y.input, 1.0/255.0, image.Pt(y.inputSize, y.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	output := y.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading output tensor: %w", err)
	}

	res, err := y.yolo.DetectObjects(data, y.resizer)

	if err != nil {
		return nil, err
	}

	return res.GetDetectResults(), nil
}

// Close frees the network and buffers
func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.loaded {
		y.net.Close()
		y.loaded = false
	}

	if y.resizer != nil {
		y.resizer.Close()
		y.resizer = nil
	}

	return y.input.Close()
}
