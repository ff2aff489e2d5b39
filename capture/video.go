package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// VideoSource reads frames from a video file, camera device or GStreamer
// pipeline and crops them to a region
type VideoSource struct {
	mu     sync.Mutex
	video  *gocv.VideoCapture
	region Region
	// loop restarts a file from the beginning when it ends
	loop bool
	name string
	img  gocv.Mat
}

// OpenVideo opens the video file or device.  A zero region keeps whole
// frames.
func OpenVideo(name string, region Region, loop bool) (*VideoSource, error) {

	video, err := gocv.OpenVideoCapture(name)

	if err != nil {
		return nil, fmt.Errorf("error opening video %s: %w", name, err)
	}

	return &VideoSource{
		video:  video,
		region: region,
		loop:   loop,
		name:   name,
		img:    gocv.NewMat(),
	}, nil
}

// OpenPipeline opens a GStreamer pipeline ending in an appsink
func OpenPipeline(pipeline string, region Region) (*VideoSource, error) {

	video, err := gocv.OpenVideoCaptureWithAPI(pipeline, gocv.VideoCaptureGstreamer)

	if err != nil {
		return nil, fmt.Errorf("error opening pipeline %q: %w", pipeline, err)
	}

	return &VideoSource{
		video:  video,
		region: region,
		name:   pipeline,
		img:    gocv.NewMat(),
	}, nil
}

// X11Pipeline returns a GStreamer pipeline grabbing the region of the X11
// display
func X11Pipeline(display string, r Region) string {

	src := "ximagesrc use-damage=false"

	if display != "" {
		src += fmt.Sprintf(" display-name=%s", display)
	}

	return fmt.Sprintf("%s startx=%d starty=%d endx=%d endy=%d ! "+
		"videoconvert ! video/x-raw,format=BGR ! appsink drop=true max-buffers=1",
		src, r.X, r.Y, r.X+r.Width-1, r.Y+r.Height-1)
}

// Capture reads the next frame
func (v *VideoSource) Capture() (gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ok := v.video.Read(&v.img)

	if !ok && v.loop {
		// rewind file to the first frame
		v.video.Set(gocv.VideoCapturePosFrames, 0)
		ok = v.video.Read(&v.img)
	}

	if !ok || v.img.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrEmptyFrame, v.name)
	}

	return cropMat(v.img, v.region)
}

// Close the video
func (v *VideoSource) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.img.Close()
	return v.video.Close()
}
