package capture

import "strings"

// Facing selects between the front and rear camera sensors.
type Facing string

const (
	// FacingUser is the front-facing camera.
	FacingUser Facing = "user"
	// FacingEnvironment is the rear-facing camera.
	FacingEnvironment Facing = "environment"
)

// Valid reports whether f is a known facing mode.
func (f Facing) Valid() bool {
	return f == FacingUser || f == FacingEnvironment
}

// Resolution limits used when selecting constraints.
const (
	LandscapeMinWidth  = 640
	LandscapeMinHeight = 360
	MaxIdealWidth      = 1280
	MaxIdealHeight     = 720
	PortraitMinWidth   = 360
	PortraitMinHeight  = 640
)

// Size is a screen size in pixels.
type Size struct {
	Width  int
	Height int
}

// Range is a single dimension constraint. Ideal is 0 when not set.
type Range struct {
	Min   int `json:"min"`
	Ideal int `json:"ideal,omitempty"`
}

// Target returns the value to request from the device.
func (r Range) Target() int {
	if r.Ideal > 0 {
		return r.Ideal
	}
	return r.Min
}

// Constraints describes the resolution and sensor requested from a camera.
type Constraints struct {
	Width      Range  `json:"width"`
	Height     Range  `json:"height"`
	FacingMode Facing `json:"facingMode"`
}

// SelectConstraints derives camera constraints from the screen orientation.
// Any orientation containing "landscape" gets ideal dimensions capped at
// 1280x720 and the screen size; everything else gets portrait minimums.
func SelectConstraints(orientation string, facing Facing, screen Size) Constraints {
	if !strings.Contains(orientation, "landscape") {
		return Constraints{
			Width:      Range{Min: PortraitMinWidth},
			Height:     Range{Min: PortraitMinHeight},
			FacingMode: facing,
		}
	}

	return Constraints{
		Width:      Range{Min: LandscapeMinWidth, Ideal: capIdeal(screen.Width, MaxIdealWidth)},
		Height:     Range{Min: LandscapeMinHeight, Ideal: capIdeal(screen.Height, MaxIdealHeight)},
		FacingMode: facing,
	}
}

// capIdeal returns the lesser of the screen dimension and the ceiling.
// An unknown (non-positive) screen dimension yields the ceiling.
func capIdeal(screen, ceiling int) int {
	if screen <= 0 || screen > ceiling {
		return ceiling
	}
	return screen
}
