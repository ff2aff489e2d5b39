//go:build !windows

package capture

import "os"

// NewScreenSource returns a source capturing the region of the X11 display
// named by $DISPLAY through a GStreamer ximagesrc pipeline
func NewScreenSource(region Region) (Source, error) {

	if err := region.Validate(); err != nil {
		return nil, err
	}

	return OpenPipeline(X11Pipeline(os.Getenv("DISPLAY"), region), Region{})
}
