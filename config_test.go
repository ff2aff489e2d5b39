package screentrack

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-screentrack/capture"
	"github.com/swdee/go-screentrack/tracker"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(file, []byte(data), 0o644))
	return file
}

func TestDefaultConfig(t *testing.T) {

	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.DetectionInterval())
	assert.Equal(t, 100*time.Millisecond, cfg.CaptureBackoff())
	assert.Equal(t, time.Duration(0), cfg.CaptureInterval())

	alg, err := cfg.Algorithm()
	require.NoError(t, err)
	assert.Equal(t, tracker.KCF, alg)

	cfg.TrackerType = "boosting"
	_, err = cfg.Algorithm()
	assert.Error(t, err)
	cfg.TrackerType = "kcf"

	assert.Equal(t, tracker.DefaultKalmanParams(), cfg.KalmanParams())
}

func TestLoadConfig(t *testing.T) {

	file := writeFile(t, "config.yml", `
scoreThreshold: 0.5
labelAllowList: []
maxConcurrentObjects: 10
detectionIntervalSeconds: 0.5
captureRegion:
  x: 100
  y: 50
  width: 2560
  height: 1440
trackerType: csrt
kalman:
  measurementNoise: 0.01
`)

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	expected := DefaultConfig()
	expected.ScoreThreshold = 0.5
	expected.LabelAllowList = []string{}
	expected.MaxConcurrentObjects = 10
	expected.DetectionIntervalSeconds = 0.5
	expected.CaptureRegion = capture.Region{X: 100, Y: 50, Width: 2560, Height: 1440}
	expected.TrackerType = "csrt"
	expected.Kalman.MeasurementNoise = 0.01

	if diff := cmp.Diff(expected, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 500*time.Millisecond, cfg.DetectionInterval())
}

func TestLoadConfigInvalid(t *testing.T) {

	tests := []struct {
		name string
		data string
	}{
		{"score above one", "scoreThreshold: 1.5\n"},
		{"zero capacity", "maxConcurrentObjects: 0\n"},
		{"unknown tracker", "trackerType: boosting\n"},
		{"empty region", "captureRegion:\n  width: 0\n  height: 0\n"},
		{"red out of range", "redThreshold: 300\n"},
		{"bad yaml", "scoreThreshold: [\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "config.yml", tc.data))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadLabels(t *testing.T) {

	file := writeFile(t, "labels.txt", "FMCW-Radar-Output\n\n# comment\n  person \n")

	labels, err := LoadLabels(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"FMCW-Radar-Output", "person"}, labels)

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestParseCores(t *testing.T) {

	cores, err := ParseCores("4, 5,6,7")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7}, cores)
	assert.Equal(t, uintptr(0b11110000), CPUCoreMask(cores))

	_, err = ParseCores("a")
	assert.Error(t, err)
}
