package overlay

import "sync"

// EventKind names a pointer or viewport event.
type EventKind string

const (
	TouchStart EventKind = "touchstart"
	TouchMove  EventKind = "touchmove"
	TouchEnd   EventKind = "touchend"
	MouseDown  EventKind = "mousedown"
	MouseMove  EventKind = "mousemove"
	MouseUp    EventKind = "mouseup"
	Resize     EventKind = "resize"
)

// Event is a pointer event over the render surface.
type Event struct {
	Type EventKind `json:"type"`
	// X is the pointer x coordinate in viewport pixels.
	X float64 `json:"x"`
	// ViewportWidth is set on resize events.
	ViewportWidth float64 `json:"viewportWidth,omitempty"`
}

// Handler reacts to one event.
type Handler func(Event)

// EventSource delivers events to registered handlers.
type EventSource interface {
	Handle(kind EventKind, h Handler)
}

// Dispatcher is an EventSource fed by Dispatch. Handlers run on the
// dispatching goroutine in registration order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventKind][]Handler)}
}

// Handle registers h for events of the given kind.
func (d *Dispatcher) Handle(kind EventKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[kind] = append(d.handlers[kind], h)
}

// Dispatch delivers e to its handlers. It reports false when no handler is
// registered for the event kind.
func (d *Dispatcher) Dispatch(e Event) bool {
	d.mu.RLock()
	handlers := d.handlers[e.Type]
	d.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
	return len(handlers) > 0
}
