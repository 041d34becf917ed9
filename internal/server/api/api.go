// Package api provides HTTP API handlers for the handcam capture service.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/handcam/internal/app"
	"github.com/ayusman/handcam/internal/capture"
)

// Capture is the part of the application the capture API drives.
type Capture interface {
	StartCapture(facing capture.Facing) (capture.Settings, error)
	StopCapture() error
	Status() app.Status
	PreferredFacing(def capture.Facing) capture.Facing
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
