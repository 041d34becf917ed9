package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/handcam/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func newSessionsRouter(s *store.Store) *mux.Router {
	h := NewSessionsHandler(s)
	r := mux.NewRouter()
	r.HandleFunc("/api/sessions", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", h.Get).Methods(http.MethodGet)
	return r
}

func createSession(t *testing.T, s *store.Store, id string, startedAt time.Time) {
	t.Helper()

	err := s.Sessions().Create(&store.Session{
		ID:          id,
		Facing:      "user",
		Orientation: "landscape-primary",
		Width:       1280,
		Height:      720,
		StartedAt:   startedAt,
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
}

func TestSessionsHandler_List(t *testing.T) {
	s := newTestStore(t)
	router := newSessionsRouter(s)

	base := time.Now().Add(-time.Hour)
	createSession(t, s, "session-1", base)
	createSession(t, s, "session-2", base.Add(time.Minute))
	createSession(t, s, "session-3", base.Add(2*time.Minute))
	if err := s.Sessions().End("session-1"); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}

	t.Run("lists newest first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response listSessionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if len(response.Sessions) != 3 {
			t.Fatalf("expected 3 sessions, got %d", len(response.Sessions))
		}
		if response.Sessions[0].ID != "session-3" {
			t.Errorf("expected newest session first, got %s", response.Sessions[0].ID)
		}
		if response.Sessions[2].EndedAt == "" {
			t.Error("expected ended_at on ended session")
		}
		if response.Sessions[0].EndedAt != "" {
			t.Error("expected no ended_at on open session")
		}
	})

	t.Run("honors limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=2", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		var response listSessionsResponse
		json.NewDecoder(rec.Body).Decode(&response)

		if len(response.Sessions) != 2 {
			t.Errorf("expected 2 sessions, got %d", len(response.Sessions))
		}
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		for _, limit := range []string{"0", "-1", "abc"} {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit="+limit, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: expected status %d, got %d", limit, http.StatusBadRequest, rec.Code)
			}
		}
	})
}

func TestSessionsHandler_List_Empty(t *testing.T) {
	router := newSessionsRouter(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	var response map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(response["sessions"]) != "[]" {
		t.Errorf("expected empty array, got %s", response["sessions"])
	}
}

func TestSessionsHandler_Get(t *testing.T) {
	s := newTestStore(t)
	router := newSessionsRouter(s)
	createSession(t, s, "session-1", time.Now())

	t.Run("existing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/session-1", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response sessionResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Facing != "user" || response.Width != 1280 || response.Height != 720 {
			t.Errorf("unexpected session %+v", response)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}
