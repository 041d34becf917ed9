package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handcam/internal/app"
	"github.com/ayusman/handcam/internal/capture"
	"github.com/ayusman/handcam/internal/overlay"
)

// fakeCapture is an in-memory Capture backed by a real opacity controller.
type fakeCapture struct {
	mu         sync.Mutex
	capturing  bool
	frames     chan []byte
	controller *overlay.Controller
	dispatcher *overlay.Dispatcher
}

func newFakeCapture() *fakeCapture {
	f := &fakeCapture{
		frames:     make(chan []byte, 4),
		controller: overlay.NewController(1000),
		dispatcher: overlay.NewDispatcher(),
	}
	f.controller.Bind(f.dispatcher)
	return f
}

func (f *fakeCapture) StartCapture(facing capture.Facing) (capture.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capturing = true
	return capture.Settings{Width: 1280, Height: 720, Facing: facing}, nil
}

func (f *fakeCapture) StopCapture() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capturing = false
	return nil
}

func (f *fakeCapture) Status() app.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return app.Status{Ready: true, Capturing: f.capturing, State: f.controller.State()}
}

func (f *fakeCapture) PreferredFacing(def capture.Facing) capture.Facing {
	return def
}

func (f *fakeCapture) Subscribe() (<-chan []byte, func()) {
	return f.frames, func() {}
}

func (f *fakeCapture) Dispatch(e overlay.Event) overlay.State {
	f.dispatcher.Dispatch(e)
	return f.controller.State()
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_CaptureRoutes(t *testing.T) {
	fake := newFakeCapture()
	s := New(Config{Capture: fake, DefaultFacing: capture.FacingUser})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"state", http.MethodGet, "/api/state", "", http.StatusOK},
		{"start", http.MethodPost, "/api/capture", `{"facing":"environment"}`, http.StatusAccepted},
		{"stop", http.MethodDelete, "/api/capture", "", http.StatusNoContent},
		{"capture wrong method", http.MethodGet, "/api/capture", "", http.StatusMethodNotAllowed},
		{"state wrong method", http.MethodPost, "/api/state", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestServer_NoCapture(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/state", "/api/stream", "/api/events", "/api/sessions"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a test HTML file
	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Create a JS file for testing direct file access
	jsContent := "console.log('viewer');"
	if err := os.WriteFile(filepath.Join(tmpDir, "viewer.js"), []byte(jsContent), 0644); err != nil {
		t.Fatalf("failed to create test JS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir, Capture: newFakeCapture()})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/viewer.js", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != jsContent {
			t.Errorf("expected body %q, got %q", jsContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("API routes take precedence", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON state, got Content-Type %s", ct)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestStreamHandler(t *testing.T) {
	fake := newFakeCapture()
	fake.frames <- []byte("jpeg-1")
	fake.frames <- []byte("jpeg-2")

	h := NewStreamHandler(fake)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for both buffered frames to be consumed before disconnecting
	deadline := time.Now().Add(2 * time.Second)
	for len(fake.frames) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not return after client disconnect")
	}

	if ct := rec.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("unexpected Content-Type %s", ct)
	}

	body := rec.Body.String()
	if strings.Count(body, "--frame\r\n") != 2 {
		t.Errorf("expected 2 frame parts, got body %q", body)
	}
	if !strings.Contains(body, "Content-Length: 6\r\n\r\njpeg-1\r\n") {
		t.Errorf("first frame missing from body %q", body)
	}
}

func TestStreamHandler_ClosedSource(t *testing.T) {
	fake := newFakeCapture()
	close(fake.frames)

	rec := httptest.NewRecorder()
	NewStreamHandler(fake).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestEventsHandler(t *testing.T) {
	fake := newFakeCapture()
	ts := httptest.NewServer(New(Config{Capture: fake}))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	steps := []struct {
		event        overlay.Event
		wantOpacity  float64
		wantDragging bool
	}{
		{overlay.Event{Type: overlay.MouseMove, X: 900}, 0.9, false},
		{overlay.Event{Type: overlay.MouseDown, X: 500}, 0.9, true},
		{overlay.Event{Type: overlay.MouseMove, X: 300}, 0.7, true},
		{overlay.Event{Type: overlay.MouseMove, X: 1300}, 1, true},
		{overlay.Event{Type: overlay.MouseUp}, 1, false},
	}

	for i, step := range steps {
		if err := conn.WriteJSON(step.event); err != nil {
			t.Fatalf("step %d: write: %v", i, err)
		}

		var state overlay.State
		if err := conn.ReadJSON(&state); err != nil {
			t.Fatalf("step %d: read: %v", i, err)
		}

		if diff := state.Opacity - step.wantOpacity; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("step %d (%s): opacity = %f, want %f", i, step.event.Type, state.Opacity, step.wantOpacity)
		}
		if state.Dragging != step.wantDragging {
			t.Errorf("step %d (%s): dragging = %v, want %v", i, step.event.Type, state.Dragging, step.wantDragging)
		}
	}
}

func TestEventsHandler_MalformedMessage(t *testing.T) {
	fake := newFakeCapture()
	ts := httptest.NewServer(NewEventsHandler(fake))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(overlay.Event{Type: overlay.TouchStart, X: 10}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var state overlay.State
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("connection should survive malformed message: %v", err)
	}
	if !state.Dragging {
		t.Error("expected dragging after touchstart")
	}
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})

	t.Run("app implements Capture", func(t *testing.T) {
		var _ Capture = (*app.App)(nil)
	})
}
