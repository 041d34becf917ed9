// Package app wires capture, recognition and the overlay into the handcam
// render loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/handcam/internal/capture"
	"github.com/ayusman/handcam/internal/overlay"
	"github.com/ayusman/handcam/internal/recognizer"
	"github.com/ayusman/handcam/internal/store"
)

// ErrRecognizerNotReady is returned by StartCapture while the gesture
// recognizer is still loading.
var ErrRecognizerNotReady = recognizer.ErrNotReady

// ErrInvalidFacing is returned by StartCapture for an unknown facing mode.
var ErrInvalidFacing = errors.New("unknown facing mode")

// Config holds configuration options for the application.
type Config struct {
	Store           *store.Store
	Devices         capture.Devices
	Orientation     string
	Screen          capture.Size
	FPS             int
	ViewportWidth   float64
	ChangeThreshold float64
	Recognizer      recognizer.Config
}

// Status is a snapshot of the application state.
type Status struct {
	Ready     bool             `json:"ready"`
	Capturing bool             `json:"capturing"`
	SessionID string           `json:"sessionId,omitempty"`
	Settings  capture.Settings `json:"settings"`
	Gesture   string           `json:"gesture,omitempty"`
	overlay.State
}

// App owns the camera, the recognizer and the opacity controller for one
// page session and runs the per-frame render loop.
type App struct {
	config     Config
	camera     capture.Camera
	change     *capture.ChangeDetector
	controller *overlay.Controller
	events     *overlay.Dispatcher
	frames     *FrameHub
	recognizer recognizer.Recognizer
	onGesture  func(name string)
	onCapture  func(capturing bool)
	gesture    string
	sessionID  string
	mu         sync.RWMutex
	stopCh     chan struct{}
	doneCh     chan struct{}

	// lifecycle serializes StartCapture and StopCapture so a start never
	// observes a stop that is still draining the render loop.
	lifecycle sync.Mutex
}

// New creates a new App. The recognizer is not loaded until LoadRecognizer
// or SetRecognizer is called.
func New(config Config) *App {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.Devices),
		change:     capture.NewChangeDetector(config.ChangeThreshold),
		controller: overlay.NewController(config.ViewportWidth),
		events:     overlay.NewDispatcher(),
		frames:     NewFrameHub(),
	}
	a.controller.Bind(a.events)
	a.restoreOpacity()

	return a
}

// restoreOpacity loads the opacity saved by the previous run, if any.
func (a *App) restoreOpacity() {
	if a.config.Store == nil {
		return
	}

	opacity, err := a.config.Store.Settings().GetFloat(store.SettingOpacity)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Failed to restore opacity: %v", err)
		}
		return
	}
	a.controller.SetOpacity(opacity)
}

// LoadRecognizer starts the MediaPipe gesture service and blocks until it
// is ready or ctx is done. When MediaPipe is unavailable a mock recognizer
// that reports no hands is used so the feed still renders.
func (a *App) LoadRecognizer(ctx context.Context) error {
	mp, err := recognizer.NewMediaPipeRecognizer(a.config.Recognizer)
	if err != nil {
		log.Printf("MediaPipe not available (%v), using mock recognizer", err)
		a.SetRecognizer(recognizer.NewMockRecognizer())
		return nil
	}

	loaded := make(chan error, 1)
	go func() {
		loaded <- mp.Load()
	}()

	select {
	case <-ctx.Done():
		go func() {
			<-loaded
			mp.Close()
		}()
		return ctx.Err()
	case err := <-loaded:
		if err != nil {
			mp.Close()
			return fmt.Errorf("load gesture recognizer: %w", err)
		}
	}

	a.SetRecognizer(mp)
	log.Println("Using MediaPipe gesture recognition")
	return nil
}

// SetRecognizer sets the recognizer implementation and marks the app ready.
func (a *App) SetRecognizer(r recognizer.Recognizer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recognizer = r
}

// SetCamera replaces the camera. It must be called before StartCapture.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// OnGesture registers fn to be called when the top recognized gesture
// changes. An empty name means no gesture is visible.
func (a *App) OnGesture(fn func(name string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onGesture = fn
}

// OnCaptureChange registers fn to be called after capture starts or stops,
// whichever caller triggered it.
func (a *App) OnCaptureChange(fn func(capturing bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCapture = fn
}

// Ready reports whether the recognizer has loaded.
func (a *App) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.recognizer != nil
}

// StartCapture selects constraints for the configured orientation and
// screen, opens the camera for facing and starts the render loop. Starting
// while already capturing returns the current settings.
func (a *App) StartCapture(facing capture.Facing) (capture.Settings, error) {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	settings, started, err := a.startLocked(facing)
	if started {
		a.notifyCapture(true)
	}
	return settings, err
}

func (a *App) startLocked(facing capture.Facing) (capture.Settings, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recognizer == nil {
		return capture.Settings{}, false, ErrRecognizerNotReady
	}
	if a.stopCh != nil {
		return a.camera.Settings(), false, nil
	}
	if !facing.Valid() {
		return capture.Settings{}, false, fmt.Errorf("%w: %q", ErrInvalidFacing, facing)
	}

	cons := capture.SelectConstraints(a.config.Orientation, facing, a.config.Screen)

	a.camera.SetFPS(a.config.FPS)
	if err := a.camera.Open(cons); err != nil {
		return capture.Settings{}, false, fmt.Errorf("open camera: %w", err)
	}

	settings := a.camera.Settings()
	surface := overlay.NewMatSurface(settings.Width, settings.Height)
	a.change.Reset()
	a.gesture = ""

	a.sessionID = uuid.New().String()
	a.recordSession(cons, settings)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(surface, a.recognizer, a.stopCh, a.doneCh)

	log.Printf("Capture started: %dx%d facing %s (session %s)", settings.Width, settings.Height, facing, a.sessionID)
	return settings, true, nil
}

// recordSession persists the new session and the facing preference.
func (a *App) recordSession(cons capture.Constraints, settings capture.Settings) {
	if a.config.Store == nil {
		return
	}

	err := a.config.Store.Sessions().Create(&store.Session{
		ID:          a.sessionID,
		Facing:      string(cons.FacingMode),
		Orientation: a.config.Orientation,
		Width:       settings.Width,
		Height:      settings.Height,
	})
	if err != nil {
		log.Printf("Failed to record session: %v", err)
	}

	if err := a.config.Store.Settings().Set(store.SettingFacing, string(cons.FacingMode)); err != nil {
		log.Printf("Failed to save facing preference: %v", err)
	}
}

// StopCapture halts the render loop and closes the camera. It is a no-op
// when not capturing.
func (a *App) StopCapture() error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	sessionID := a.sessionID
	a.sessionID = ""
	camera := a.camera
	a.mu.Unlock()

	if stopCh == nil {
		return nil
	}

	close(stopCh)
	<-doneCh

	a.mu.Lock()
	a.gesture = ""
	a.mu.Unlock()

	err := camera.Close()

	if a.config.Store != nil {
		if err := a.config.Store.Sessions().End(sessionID); err != nil {
			log.Printf("Failed to end session %s: %v", sessionID, err)
		}
		if err := a.config.Store.Settings().SetFloat(store.SettingOpacity, a.controller.Opacity()); err != nil {
			log.Printf("Failed to save opacity: %v", err)
		}
	}

	log.Println("Capture stopped")
	a.notifyCapture(false)
	return err
}

func (a *App) notifyCapture(capturing bool) {
	a.mu.RLock()
	fn := a.onCapture
	a.mu.RUnlock()

	if fn != nil {
		fn(capturing)
	}
}

// Close stops capturing and releases the recognizer.
func (a *App) Close() error {
	err := a.StopCapture()

	a.mu.Lock()
	r := a.recognizer
	a.recognizer = nil
	a.mu.Unlock()

	if r != nil {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	a.change.Close()

	return err
}

// PreferredFacing returns the facing mode saved by the last capture, or def.
func (a *App) PreferredFacing(def capture.Facing) capture.Facing {
	if a.config.Store == nil {
		return def
	}
	value, err := a.config.Store.Settings().Get(store.SettingFacing)
	if err != nil {
		return def
	}
	if f := capture.Facing(value); f.Valid() {
		return f
	}
	return def
}

// Status returns a snapshot of readiness, capture and drag state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Status{
		Ready:     a.recognizer != nil,
		Capturing: a.stopCh != nil,
		SessionID: a.sessionID,
		Gesture:   a.gesture,
		State:     a.controller.State(),
	}
	if s.Capturing {
		s.Settings = a.camera.Settings()
	}
	return s
}

// Dispatch delivers a pointer event to the opacity controller and returns
// the resulting drag state.
func (a *App) Dispatch(e overlay.Event) overlay.State {
	a.events.Dispatch(e)
	return a.controller.State()
}

// Subscribe returns a channel of rendered JPEG frames.
func (a *App) Subscribe() (<-chan []byte, func()) {
	return a.frames.Subscribe()
}

// Controller returns the opacity controller.
func (a *App) Controller() *overlay.Controller {
	return a.controller
}

// Events returns the event source the controller is bound to.
func (a *App) Events() *overlay.Dispatcher {
	return a.events
}

// Frames returns the rendered frame hub.
func (a *App) Frames() *FrameHub {
	return a.frames
}
