package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcam/internal/recognizer"
)

// MatSurface draws into a BGR gocv.Mat.
type MatSurface struct {
	dst    gocv.Mat
	width  int
	height int
	alpha  float64
	saved  []float64
}

// NewMatSurface allocates a width x height surface. Close releases it.
func NewMatSurface(width, height int) *MatSurface {
	return &MatSurface{
		dst:    gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
		width:  width,
		height: height,
		alpha:  1,
	}
}

// Mat returns the surface's backing Mat. It stays owned by the surface.
func (s *MatSurface) Mat() *gocv.Mat {
	return &s.dst
}

// Encode returns the current surface contents as JPEG bytes.
func (s *MatSurface) Encode() ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.dst)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Close releases the backing Mat.
func (s *MatSurface) Close() error {
	return s.dst.Close()
}

func (s *MatSurface) Size() (int, int) {
	return s.width, s.height
}

func (s *MatSurface) Save() {
	s.saved = append(s.saved, s.alpha)
}

func (s *MatSurface) Restore() {
	if len(s.saved) == 0 {
		return
	}
	s.alpha = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
}

func (s *MatSurface) SetAlpha(alpha float64) {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	s.alpha = alpha
}

func (s *MatSurface) Clear() {
	s.dst.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// DrawImage scales img to fill the surface.
func (s *MatSurface) DrawImage(img *gocv.Mat) {
	if img == nil || img.Empty() {
		return
	}
	if img.Cols() == s.width && img.Rows() == s.height {
		img.CopyTo(&s.dst)
		return
	}
	gocv.Resize(*img, &s.dst, image.Pt(s.width, s.height), 0, 0, gocv.InterpolationLinear)
}

func (s *MatSurface) FillRect(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(image.Rect(0, 0, s.width, s.height))
	if r.Empty() || s.alpha == 0 {
		return
	}

	region := s.dst.Region(r)
	defer region.Close()

	if s.alpha >= 1 {
		region.SetTo(scalar(c))
		return
	}

	fill := gocv.NewMatWithSize(region.Rows(), region.Cols(), region.Type())
	defer fill.Close()
	fill.SetTo(scalar(c))

	gocv.AddWeighted(fill, s.alpha, region, 1-s.alpha, 0, &region)
}

func (s *MatSurface) DrawConnectors(points []image.Point, conns []recognizer.Connection, c color.RGBA, width int) {
	s.blend(func(m *gocv.Mat) {
		for _, conn := range conns {
			if conn.Start >= len(points) || conn.End >= len(points) {
				continue
			}
			gocv.Line(m, points[conn.Start], points[conn.End], c, width)
		}
	})
}

func (s *MatSurface) DrawLandmarks(points []image.Point, c color.RGBA, width int) {
	radius := width * 2
	s.blend(func(m *gocv.Mat) {
		for _, p := range points {
			gocv.Circle(m, p, radius, c, -1)
		}
	})
}

func (s *MatSurface) FillText(text string, at image.Point, style TextStyle) {
	scale := float64(style.SizePx) / 30.0
	thickness := 1
	if style.Bold {
		thickness = 2
	}

	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, scale, thickness)
	origin := image.Pt(at.X-size.X/2, at.Y)

	s.blend(func(m *gocv.Mat) {
		gocv.PutText(m, text, origin, gocv.FontHersheySimplex, scale, style.Color, thickness)
	})
}

// blend runs draw directly when fully opaque, otherwise on a copy that is
// then mixed back in at the current alpha.
func (s *MatSurface) blend(draw func(m *gocv.Mat)) {
	if s.alpha == 0 {
		return
	}
	if s.alpha >= 1 {
		draw(&s.dst)
		return
	}

	layer := s.dst.Clone()
	defer layer.Close()
	draw(&layer)

	gocv.AddWeighted(layer, s.alpha, s.dst, 1-s.alpha, 0, &s.dst)
}

// scalar converts an RGBA color to OpenCV's BGR channel order.
func scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), float64(c.A))
}
