package recognizer

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// ErrNotReady is returned when a recognizer is used before it finished loading.
var ErrNotReady = errors.New("gesture recognizer is not ready")

// Recognizer is the external hand gesture recognition service.
type Recognizer interface {
	// Recognize analyzes a video frame captured at timestampMs and returns the
	// detected hands with their ranked gestures. A frame without hands yields
	// a Result with no hands.
	Recognize(frame *gocv.Mat, timestampMs int64) (*Result, error)

	// Close releases any resources held by the recognizer.
	Close() error
}

// Config holds configuration options for gesture recognition.
type Config struct {
	// NumHands is the maximum number of hands to detect (default: 2).
	NumHands int

	// MinDetectionConf is the minimum hand detection confidence (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the location of the recognition service script.
	ScriptPath string

	// IdleTimeout stops the service after this long without a frame.
	// Zero keeps it running until Close, which suits callers that only
	// send frames when the scene changes.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		NumHands:         2,
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
	}
}

// Category is a classification label with its confidence.
type Category struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Score       float64 `json:"score"`
}

// Label returns the display name, falling back to the category name.
func (c Category) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// Hand is a single detected hand.
type Hand struct {
	Landmarks  [NumLandmarks]Point3D `json:"landmarks"`
	Handedness Category              `json:"handedness"`
	// Gestures is ranked by score, best first.
	Gestures []Category `json:"gestures"`
}

// Result is the recognition output for one frame.
type Result struct {
	Hands       []Hand `json:"hands"`
	TimestampMs int64  `json:"timestamp"`
}

// TopGesture returns the best gesture of the first hand that has one.
func (r *Result) TopGesture() (gesture Category, handedness Category, ok bool) {
	if r == nil {
		return Category{}, Category{}, false
	}
	for _, h := range r.Hands {
		if len(h.Gestures) > 0 {
			return h.Gestures[0], h.Handedness, true
		}
	}
	return Category{}, Category{}, false
}
