package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcam/internal/recognizer"
)

// Overlay colors and line widths.
var (
	ShadeColor     = color.RGBA{0, 0, 0, 255}
	ConnectorColor = color.RGBA{0, 255, 0, 255}
	LandmarkColor  = color.RGBA{255, 0, 0, 255}
	TextColor      = color.RGBA{255, 255, 255, 255}
)

const (
	ConnectorWidth = 5
	LandmarkWidth  = 2
	// GestureTextY is the baseline of the gesture label.
	GestureTextY = 20
)

// TextStyle describes how FillText renders a centred string.
type TextStyle struct {
	SizePx int
	Bold   bool
	Color  color.RGBA
}

var (
	gestureTextStyle = TextStyle{SizePx: 16, Color: TextColor}
	opacityTextStyle = TextStyle{SizePx: 24, Bold: true, Color: TextColor}
)

// Surface accepts primitive draw commands. Alpha set with SetAlpha applies
// to every later fill and stroke until the matching Restore.
type Surface interface {
	Size() (width, height int)
	Save()
	Restore()
	SetAlpha(alpha float64)
	Clear()
	DrawImage(img *gocv.Mat)
	FillRect(r image.Rectangle, c color.RGBA)
	DrawConnectors(points []image.Point, conns []recognizer.Connection, c color.RGBA, width int)
	DrawLandmarks(points []image.Point, c color.RGBA, width int)
	// FillText draws text with its baseline centred horizontally on at.
	FillText(text string, at image.Point, style TextStyle)
}

// Render draws one frame: the camera image, the opacity shade, hand
// skeletons, the top gesture label and, while dragging, the opacity value.
func Render(s Surface, img *gocv.Mat, result *recognizer.Result, state State) {
	width, height := s.Size()

	s.Save()
	s.Clear()
	if img != nil {
		s.DrawImage(img)
	}

	s.SetAlpha(state.Opacity)
	s.FillRect(image.Rect(0, 0, width, height), ShadeColor)

	if result != nil {
		for i := range result.Hands {
			points := toPixels(result.Hands[i].Landmarks[:], width, height)
			s.DrawConnectors(points, recognizer.HandConnections, ConnectorColor, ConnectorWidth)
			s.DrawLandmarks(points, LandmarkColor, LandmarkWidth)
		}
	}
	s.Restore()

	if text, ok := GestureText(result); ok {
		s.FillText(text, image.Pt(width/2, GestureTextY), gestureTextStyle)
	}

	if state.Dragging {
		s.FillText(OpacityText(state.Opacity), image.Pt(width/2, height/2), opacityTextStyle)
	}
}

// GestureText formats the label for the best gesture in result.
func GestureText(result *recognizer.Result) (string, bool) {
	gesture, handedness, ok := result.TopGesture()
	if !ok {
		return "", false
	}
	return fmt.Sprintf("GestureRecognizer: %s, Confidence: %.2f %%, Handedness: %s",
		gesture.Name, gesture.Score*100, handedness.Label()), true
}

// OpacityText formats opacity as a whole percentage.
func OpacityText(opacity float64) string {
	return fmt.Sprintf("Opacity: %d%%", int(math.Round(opacity*100)))
}

// toPixels scales normalized landmarks to surface coordinates.
func toPixels(landmarks []recognizer.Point3D, width, height int) []image.Point {
	points := make([]image.Point, len(landmarks))
	for i, p := range landmarks {
		points[i] = image.Pt(int(math.Round(p.X*float64(width))), int(math.Round(p.Y*float64(height))))
	}
	return points
}
