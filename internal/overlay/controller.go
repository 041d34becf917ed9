// Package overlay holds the opacity drag controller and the per-frame
// renderer that composites the darkening overlay and hand landmarks.
package overlay

import "sync"

// DefaultOpacity is the overlay darkness at the start of a session.
const DefaultOpacity = 0.9

// State is a snapshot of the drag state.
type State struct {
	Opacity  float64 `json:"opacity"`
	Dragging bool    `json:"dragging"`
}

// Controller turns horizontal drags into overlay opacity changes.
// A drag across the full viewport width moves opacity by exactly 1.
// Opacity always stays within [0, 1].
type Controller struct {
	mu            sync.Mutex
	viewportWidth float64
	lastX         float64
	dragging      bool
	opacity       float64
}

// NewController creates a Controller for a viewport of the given width.
func NewController(viewportWidth float64) *Controller {
	return &Controller{
		viewportWidth: viewportWidth,
		opacity:       DefaultOpacity,
	}
}

// OnDragStart records x as the drag reference and starts dragging.
func (c *Controller) OnDragStart(x float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastX = x
	c.dragging = true
}

// OnDragMove adjusts opacity by the horizontal distance since the last
// pointer position, normalized by viewport width. It does nothing unless a
// drag is in progress.
func (c *Controller) OnDragMove(x float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dragging {
		return
	}

	if c.viewportWidth > 0 {
		c.opacity = clamp(c.opacity + (x-c.lastX)/c.viewportWidth)
	}
	c.lastX = x
}

// OnDragEnd stops dragging.
func (c *Controller) OnDragEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dragging = false
}

// Opacity returns the current overlay opacity.
func (c *Controller) Opacity() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.opacity
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dragging
}

// State returns opacity and dragging together.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{Opacity: c.opacity, Dragging: c.dragging}
}

// SetOpacity replaces the opacity, clamped to [0, 1].
func (c *Controller) SetOpacity(o float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.opacity = clamp(o)
}

// SetViewportWidth updates the width drags are normalized by.
func (c *Controller) SetViewportWidth(w float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.viewportWidth = w
}

// ViewportWidth returns the width drags are normalized by.
func (c *Controller) ViewportWidth() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.viewportWidth
}

// Bind registers the controller's handlers for touch and mouse events.
func (c *Controller) Bind(src EventSource) {
	for _, kind := range []EventKind{TouchStart, MouseDown} {
		src.Handle(kind, func(e Event) { c.OnDragStart(e.X) })
	}
	for _, kind := range []EventKind{TouchMove, MouseMove} {
		src.Handle(kind, func(e Event) { c.OnDragMove(e.X) })
	}
	for _, kind := range []EventKind{TouchEnd, MouseUp} {
		src.Handle(kind, func(Event) { c.OnDragEnd() })
	}
	src.Handle(Resize, func(e Event) {
		if e.ViewportWidth > 0 {
			c.SetViewportWidth(e.ViewportWidth)
		}
	})
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
