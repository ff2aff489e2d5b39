package screentrack

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swdee/go-screentrack/detector"
	"github.com/swdee/go-screentrack/render"
	"github.com/swdee/go-screentrack/tracker"
)

func TestSetLoggerReplacesAllPackages(t *testing.T) {

	old := Logf
	defer SetLogger(old)

	var (
		mu    sync.Mutex
		lines []string
	)

	SetLogger(func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	Logf("root %d", 1)
	tracker.Logf("tracker %d", 2)
	detector.Logf("detector %d", 3)
	render.Logf("render %d", 4)

	assert.Equal(t, []string{"root 1", "tracker 2", "detector 3", "render 4"}, lines)

	SetLogger(nil)

	Logf("muted")
	tracker.Logf("muted")
	detector.Logf("muted")
	render.Logf("muted")

	assert.Len(t, lines, 4)
}
