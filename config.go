package screentrack

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/swdee/go-screentrack/capture"
	"github.com/swdee/go-screentrack/tracker"
	"gopkg.in/yaml.v3"
)

// Config holds the engine settings, it is not modified once the engine has
// started
type Config struct {
	// MaxBoxArea is the largest detection box accepted in source resolution
	// pixels squared
	MaxBoxArea float64 `yaml:"maxBoxArea" validate:"gt=0"`
	// ScoreThreshold is the minimum detection confidence
	ScoreThreshold float64 `yaml:"scoreThreshold" validate:"gte=0,lte=1"`
	// LabelAllowList restricts tracking to the given labels, empty accepts
	// all labels
	LabelAllowList []string `yaml:"labelAllowList"`
	// ResetAllowListOnStart clears LabelAllowList when the engine starts
	ResetAllowListOnStart bool `yaml:"resetAllowListOnStart"`
	// MaxConcurrentObjects is the capacity of the tracked object registry
	MaxConcurrentObjects int `yaml:"maxConcurrentObjects" validate:"gt=0"`
	// MaxTrackingMisses is the number of consecutive tracker failures an
	// object survives
	MaxTrackingMisses int `yaml:"maxTrackingMisses" validate:"gte=0"`
	// DetectionIntervalSeconds is the time between detection cycles
	DetectionIntervalSeconds float64 `yaml:"detectionIntervalSeconds" validate:"gt=0"`
	// RedThreshold is the minimum mean red channel value of a detection
	RedThreshold float64 `yaml:"redThreshold" validate:"gte=0,lte=255"`
	// DetectionResolution is the longest side frames are reduced to before
	// detection and tracking
	DetectionResolution int `yaml:"detectionResolution" validate:"gt=0"`
	// CaptureRegion is the area of the screen captured
	CaptureRegion capture.Region `yaml:"captureRegion"`
	// CaptureBackoffMillis is the wait after a failed capture
	CaptureBackoffMillis int `yaml:"captureBackoffMillis" validate:"gte=0"`
	// MaxCaptureFPS caps the capture rate, 0 captures as fast as possible
	MaxCaptureFPS float64 `yaml:"maxCaptureFPS" validate:"gte=0"`
	// TrackerType selects the visual tracker algorithm
	TrackerType string `yaml:"trackerType" validate:"oneof=mil kcf csrt"`
	// Kalman holds the tracking filter noise parameters
	Kalman KalmanConfig `yaml:"kalman"`
	// StatsIntervalSeconds is the period of the statistics log line, 0
	// disables it
	StatsIntervalSeconds float64 `yaml:"statsIntervalSeconds" validate:"gte=0"`
}

// KalmanConfig holds the Kalman filter noise parameters
type KalmanConfig struct {
	ProcessNoise      float64 `yaml:"processNoise" validate:"gt=0"`
	MeasurementNoise  float64 `yaml:"measurementNoise" validate:"gt=0"`
	InitialCovariance float64 `yaml:"initialCovariance" validate:"gt=0"`
}

// DefaultConfig returns the settings for tracking radar output on a full HD
// screen
func DefaultConfig() Config {

	kp := tracker.DefaultKalmanParams()

	return Config{
		MaxBoxArea:               100000000,
		ScoreThreshold:           0.3,
		LabelAllowList:           []string{"FMCW-Radar-Output"},
		MaxConcurrentObjects:     100,
		MaxTrackingMisses:        5,
		DetectionIntervalSeconds: 1,
		RedThreshold:             240,
		DetectionResolution:      640,
		CaptureRegion: capture.Region{
			X:      0,
			Y:      0,
			Width:  1920,
			Height: 1080,
		},
		CaptureBackoffMillis: 100,
		TrackerType:          string(tracker.KCF),
		Kalman: KalmanConfig{
			ProcessNoise:      kp.ProcessNoise,
			MeasurementNoise:  kp.MeasurementNoise,
			InitialCovariance: kp.InitialCovariance,
		},
		StatsIntervalSeconds: 10,
	}
}

// LoadConfig reads a YAML config file over the defaults and validates it
func LoadConfig(file string) (Config, error) {

	cfg := DefaultConfig()

	data, err := os.ReadFile(file)

	if err != nil {
		return cfg, fmt.Errorf("error reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config %s: %w", file, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the config values are within range
func (c Config) Validate() error {

	v := validator.New()

	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// DetectionInterval returns the detection period
func (c Config) DetectionInterval() time.Duration {
	return time.Duration(c.DetectionIntervalSeconds * float64(time.Second))
}

// CaptureBackoff returns the wait after a failed capture
func (c Config) CaptureBackoff() time.Duration {
	return time.Duration(c.CaptureBackoffMillis) * time.Millisecond
}

// CaptureInterval returns the minimum time between captures
func (c Config) CaptureInterval() time.Duration {
	if c.MaxCaptureFPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.MaxCaptureFPS)
}

// StatsInterval returns the period of the statistics log
func (c Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalSeconds * float64(time.Second))
}

// Algorithm returns the visual tracker algorithm named by TrackerType
func (c Config) Algorithm() (tracker.Algorithm, error) {
	return tracker.ParseAlgorithm(c.TrackerType)
}

// KalmanParams returns the tracking filter parameters
func (c Config) KalmanParams() tracker.KalmanParams {
	return tracker.KalmanParams{
		ProcessNoise:      c.Kalman.ProcessNoise,
		MeasurementNoise:  c.Kalman.MeasurementNoise,
		InitialCovariance: c.Kalman.InitialCovariance,
	}
}

// LogSettings writes the settings banner to the package logger
func (c Config) LogSettings() {
	Logf("----- Settings -----")
	Logf("Max box size: %.0f", c.MaxBoxArea)
	Logf("Detection score threshold: %.0f%%", c.ScoreThreshold*100)
	Logf("Max concurrent objects: %d", c.MaxConcurrentObjects)
	Logf("Max tracking misses: %d", c.MaxTrackingMisses)
	Logf("Detection interval: %v", c.DetectionInterval())
	Logf("Detection resolution: %d", c.DetectionResolution)
	Logf("Labels: %v (all detections allowed if empty)", c.LabelAllowList)
	Logf("Capture region: %s", c.CaptureRegion)
	Logf("Red threshold: %.0f", c.RedThreshold)
	Logf("Tracker: %s", c.TrackerType)
}
