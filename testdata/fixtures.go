// Package testdata provides synthetic camera frames for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame sizes matching the landscape and portrait capture minimums.
const (
	LandscapeWidth  = 640
	LandscapeHeight = 360
	PortraitWidth   = 360
	PortraitHeight  = 640
)

// SolidFrame creates a BGR frame filled with a single gray value.
// The caller must Close it.
func SolidFrame(width, height int, value float64) *gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(value, value, value, 0))
	return &mat
}

// Sequence creates one solid frame per value, so consecutive frames differ
// whenever their values do.
func Sequence(width, height int, values ...float64) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, len(values))
	for _, v := range values {
		frames = append(frames, SolidFrame(width, height, v))
	}
	return frames
}

// HandFrame creates a dark frame with a bright blob centred at the
// normalised position (cx, cy), standing in for a hand in front of the camera.
func HandFrame(width, height int, cx, cy float64) *gocv.Mat {
	mat := SolidFrame(width, height, 20)
	center := image.Pt(int(cx*float64(width)), int(cy*float64(height)))
	gocv.Circle(mat, center, height/6, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	return mat
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
