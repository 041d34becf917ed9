package recognizer

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockRecognizer is a test implementation of the Recognizer interface.
// It allows tests to control the recognition results.
type MockRecognizer struct {
	mu     sync.Mutex
	hands  []Hand
	err    error
	calls  int
	closed bool
}

// NewMockRecognizer creates a new MockRecognizer instance.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// SetHands sets the hands that will be returned by Recognize.
func (m *MockRecognizer) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Recognize.
func (m *MockRecognizer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Recognize returns the pre-configured hands or error.
func (m *MockRecognizer) Recognize(frame *gocv.Mat, timestampMs int64) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	hands := make([]Hand, len(m.hands))
	copy(hands, m.hands)
	return &Result{Hands: hands, TimestampMs: timestampMs}, nil
}

// Calls returns how many times Recognize was called.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockRecognizer) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the mock closed.
func (m *MockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ThumbsUpHand returns a right hand recognized as "Thumb_Up".
// The thumb is extended upward while other fingers are curled.
func ThumbsUpHand() Hand {
	h := Hand{
		Handedness: Category{Name: "Right", DisplayName: "Right", Score: 0.95},
		Gestures: []Category{
			{Name: "Thumb_Up", Score: 0.87},
			{Name: "Closed_Fist", Score: 0.08},
		},
	}

	// Wrist at origin
	h.Landmarks[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (pointing up, Y decreases going up)
	h.Landmarks[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	h.Landmarks[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	h.Landmarks[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	h.Landmarks[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Index finger curled (knuckles close together, tip near palm)
	h.Landmarks[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	h.Landmarks[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	h.Landmarks[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	h.Landmarks[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	// Middle finger curled
	h.Landmarks[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	h.Landmarks[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	h.Landmarks[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	h.Landmarks[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	// Ring finger curled
	h.Landmarks[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	h.Landmarks[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	h.Landmarks[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	h.Landmarks[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	// Pinky finger curled
	h.Landmarks[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	h.Landmarks[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	h.Landmarks[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	h.Landmarks[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return h
}

// OpenPalmHand returns a right hand recognized as "Open_Palm".
// All fingers are extended outward.
func OpenPalmHand() Hand {
	h := Hand{
		Handedness: Category{Name: "Right", DisplayName: "Right", Score: 0.93},
		Gestures: []Category{
			{Name: "Open_Palm", Score: 0.91},
		},
	}

	// Wrist at base
	h.Landmarks[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	h.Landmarks[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	h.Landmarks[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	h.Landmarks[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	h.Landmarks[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	// Index finger extended upward
	h.Landmarks[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	h.Landmarks[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	h.Landmarks[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	h.Landmarks[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Middle finger extended upward (slightly longer)
	h.Landmarks[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	h.Landmarks[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	h.Landmarks[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	h.Landmarks[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	// Ring finger extended upward
	h.Landmarks[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	h.Landmarks[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	h.Landmarks[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	h.Landmarks[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	// Pinky finger extended upward
	h.Landmarks[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	h.Landmarks[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	h.Landmarks[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	h.Landmarks[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return h
}
