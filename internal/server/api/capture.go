package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/ayusman/handcam/internal/app"
	"github.com/ayusman/handcam/internal/capture"
)

// CaptureHandler starts and stops capture and reports application state.
type CaptureHandler struct {
	capture       Capture
	defaultFacing capture.Facing
}

// NewCaptureHandler creates a CaptureHandler. A start request that does not
// name a facing mode uses the facing of the last capture, or defaultFacing
// when there was none.
func NewCaptureHandler(c Capture, defaultFacing capture.Facing) *CaptureHandler {
	if !defaultFacing.Valid() {
		defaultFacing = capture.FacingUser
	}
	return &CaptureHandler{capture: c, defaultFacing: defaultFacing}
}

type startCaptureRequest struct {
	Facing string `json:"facing"`
}

// State handles GET /api/state.
func (h *CaptureHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.capture.Status())
}

// Start handles POST /api/capture.
func (h *CaptureHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startCaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	facing := h.capture.PreferredFacing(h.defaultFacing)
	if req.Facing != "" {
		facing = capture.Facing(req.Facing)
	}

	if _, err := h.capture.StartCapture(facing); err != nil {
		switch {
		case errors.Is(err, app.ErrRecognizerNotReady):
			writeError(w, http.StatusServiceUnavailable, "Gesture recognizer is still loading")
		case errors.Is(err, app.ErrInvalidFacing):
			writeError(w, http.StatusBadRequest, "Facing must be user or environment")
		default:
			log.Printf("Failed to start capture: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to start capture")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, h.capture.Status())
}

// Stop handles DELETE /api/capture.
func (h *CaptureHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.capture.StopCapture(); err != nil {
		log.Printf("Failed to stop capture: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to stop capture")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
