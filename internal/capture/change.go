package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Change detection constants
const (
	// BlurSize is the Gaussian kernel size used before differencing.
	BlurSize = 21
	// PixelDiffThreshold is the per-pixel intensity difference counted as changed.
	PixelDiffThreshold = 25
	// DefaultChangeThreshold is the percentage of changed pixels that marks a new frame.
	DefaultChangeThreshold = 0.5
)

// ChangeDetector reports whether a frame differs enough from the previous
// one to be worth sending to the recognizer again.
type ChangeDetector struct {
	threshold float64
	prevGray  gocv.Mat
	hasPrev   bool
	closed    bool
	mu        sync.Mutex
}

// NewChangeDetector creates a ChangeDetector. threshold is the percentage of
// pixels that must change; non-positive values use DefaultChangeThreshold.
func NewChangeDetector(threshold float64) *ChangeDetector {
	if threshold <= 0 {
		threshold = DefaultChangeThreshold
	}
	return &ChangeDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Changed compares frame with the previous frame and returns whether it
// changed along with the percentage of changed pixels. The first frame after
// construction or Reset always counts as changed.
func (d *ChangeDetector) Changed(frame *gocv.Mat) (bool, float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: BlurSize, Y: BlurSize}, 0, 0, gocv.BorderDefault)

	if !d.hasPrev || blurred.Rows() != d.prevGray.Rows() || blurred.Cols() != d.prevGray.Cols() {
		blurred.CopyTo(&d.prevGray)
		d.hasPrev = true
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, d.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, PixelDiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	blurred.CopyTo(&d.prevGray)

	return changed > d.threshold, changed
}

// Reset forgets the previous frame. The next frame counts as changed.
func (d *ChangeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.hasPrev = false
}

// Close releases the stored frame. Changed reports no change afterwards.
func (d *ChangeDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.prevGray.Close()
	d.hasPrev = false
	d.closed = true
}

// SetThreshold sets the change threshold in percent. Values <= 0 are ignored.
func (d *ChangeDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.threshold = threshold
}
