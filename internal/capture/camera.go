// Package capture selects camera constraints and captures frames using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultFPS is the capture rate used until SetFPS is called.
const DefaultFPS = 15

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Devices maps each facing mode to a capture device index.
type Devices struct {
	Front int
	Rear  int
}

// DeviceFor returns the device index for the given facing mode.
// Unknown facing modes use the front device.
func (d Devices) DeviceFor(f Facing) int {
	if f == FacingEnvironment {
		return d.Rear
	}
	return d.Front
}

// Settings is the resolution the device actually delivers after Open.
type Settings struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Facing Facing `json:"facingMode"`
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open(c Constraints) error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	Settings() Settings
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	devices  Devices
	capture  *gocv.VideoCapture
	settings Settings
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a new Camera that picks a device from devices by facing mode.
func NewCamera(devices Devices) Camera {
	return &cameraImpl{
		devices: devices,
		fps:     DefaultFPS,
	}
}

// Open opens the device selected by the constraints' facing mode and
// requests the constrained resolution. The negotiated resolution is
// available from Settings afterwards.
func (c *cameraImpl) Open(cons Constraints) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	deviceID := c.devices.DeviceFor(cons.FacingMode)
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return fmt.Errorf("open device %d: %w", deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cons.Width.Target()))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cons.Height.Target()))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	if width < cons.Width.Min || height < cons.Height.Min {
		capture.Close()
		return fmt.Errorf("device %d delivers %dx%d, below minimum %dx%d",
			deviceID, width, height, cons.Width.Min, cons.Height.Min)
	}

	c.capture = capture
	c.settings = Settings{Width: width, Height: height, Facing: cons.FacingMode}
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// Settings returns the negotiated capture settings. Zero until Open succeeds.
func (c *cameraImpl) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.settings
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
