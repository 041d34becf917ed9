package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handcam/internal/overlay"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler receives pointer events over a WebSocket and answers each
// one with the resulting drag state.
type EventsHandler struct {
	events EventDispatcher
}

// NewEventsHandler creates a new EventsHandler dispatching to events.
func NewEventsHandler(events EventDispatcher) *EventsHandler {
	return &EventsHandler{events: events}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		var e overlay.Event
		if err := json.Unmarshal(msg, &e); err != nil {
			log.Printf("ignoring malformed event: %v", err)
			continue
		}

		state := h.events.Dispatch(e)
		if err := conn.WriteJSON(state); err != nil {
			return
		}
	}
}
