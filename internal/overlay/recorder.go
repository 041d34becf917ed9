package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcam/internal/recognizer"
)

// Command is one draw call captured by a Recorder.
type Command struct {
	Op     string
	Alpha  float64
	Rect   image.Rectangle
	Color  color.RGBA
	Width  int
	Points int
	Text   string
	At     image.Point
	Style  TextStyle
}

// Recorder is a Surface that records draw calls instead of drawing.
// Each command carries the alpha in effect when it was issued.
type Recorder struct {
	width    int
	height   int
	alpha    float64
	saved    []float64
	Commands []Command
}

// NewRecorder creates a Recorder reporting the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height, alpha: 1}
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		ops[i] = c.Op
	}
	return ops
}

func (r *Recorder) record(c Command) {
	c.Alpha = r.alpha
	r.Commands = append(r.Commands, c)
}

func (r *Recorder) Size() (int, int) { return r.width, r.height }

func (r *Recorder) Save() {
	r.saved = append(r.saved, r.alpha)
	r.record(Command{Op: "save"})
}

func (r *Recorder) Restore() {
	if n := len(r.saved); n > 0 {
		r.alpha = r.saved[n-1]
		r.saved = r.saved[:n-1]
	}
	r.record(Command{Op: "restore"})
}

func (r *Recorder) SetAlpha(alpha float64) {
	r.alpha = alpha
	r.record(Command{Op: "alpha"})
}

func (r *Recorder) Clear() { r.record(Command{Op: "clear"}) }

func (r *Recorder) DrawImage(img *gocv.Mat) { r.record(Command{Op: "image"}) }

func (r *Recorder) FillRect(rect image.Rectangle, c color.RGBA) {
	r.record(Command{Op: "rect", Rect: rect, Color: c})
}

func (r *Recorder) DrawConnectors(points []image.Point, conns []recognizer.Connection, c color.RGBA, width int) {
	r.record(Command{Op: "connectors", Color: c, Width: width, Points: len(points)})
}

func (r *Recorder) DrawLandmarks(points []image.Point, c color.RGBA, width int) {
	r.record(Command{Op: "landmarks", Color: c, Width: width, Points: len(points)})
}

func (r *Recorder) FillText(text string, at image.Point, style TextStyle) {
	r.record(Command{Op: "text", Text: text, At: at, Style: style})
}
