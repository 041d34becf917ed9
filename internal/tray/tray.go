// Package tray provides a system tray interface for starting and stopping
// handcam capture.
package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

const (
	titleCapturing = "● Capturing"
	titleStopped   = "○ Stopped"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(capturing bool) error
	onViewer  func()
	onQuit    func()
	capturing bool
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a new Tray instance in the stopped state.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback called when capture is toggled. If it returns
// an error the toggle is reverted.
func (t *Tray) OnToggle(fn func(capturing bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnViewer sets the callback function to be called when the viewer menu item is clicked.
func (t *Tray) OnViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Handcam")
	systray.SetTooltip("Handcam Gesture Overlay")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.capturing), "Start or stop camera capture")
	t.mu.Unlock()
	systray.AddSeparator()

	t.mu.Lock()
	t.menuLastGesture = systray.AddMenuItem("Last: none", "Last recognized gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuViewer := systray.AddMenuItem("Open Viewer...", "Open the overlay in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Handcam")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuViewer.ClickedCh:
				t.handleViewer()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(capturing bool) string {
	if capturing {
		return titleCapturing
	}
	return titleStopped
}

// handleToggle flips the capture state and runs the toggle callback.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	capturing := !t.capturing
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		if err := callback(capturing); err != nil {
			log.Printf("Capture toggle failed: %v", err)
			return
		}
	}

	t.SetCapturing(capturing)
}

// handleViewer handles the viewer menu item click.
func (t *Tray) handleViewer() {
	t.mu.RLock()
	callback := t.onViewer
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetCapturing updates the capture state shown in the menu, for captures
// started or stopped outside the tray.
func (t *Tray) SetCapturing(capturing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.capturing = capturing
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(capturing))
	}
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastGesture != nil {
		if name == "" {
			t.menuLastGesture.SetTitle("Last: none")
		} else {
			t.menuLastGesture.SetTitle("Last: " + name)
		}
	}
}

// IsCapturing returns the current capture state.
func (t *Tray) IsCapturing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.capturing
}
