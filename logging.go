package screentrack

import (
	"log"

	"github.com/swdee/go-screentrack/detector"
	"github.com/swdee/go-screentrack/render"
	"github.com/swdee/go-screentrack/tracker"
)

// Logf is the package-level logger.  It defaults to log.Printf and may be
// replaced with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the logger of this package and of the tracker,
// detector and render packages, passing nil mutes logging
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}

	Logf = f
	tracker.Logf = f
	detector.Logf = f
	render.Logf = f
}
