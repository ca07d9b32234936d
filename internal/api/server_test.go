package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KhamessiTaha/collaborative-code-editor/internal/store"
	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

type stubRegistry struct {
	stats map[string]int
}

func (s *stubRegistry) Stats() map[string]int { return s.stats }

type stubJournal struct {
	entries   []*types.JournalEntry
	healthErr error
}

func (s *stubJournal) Record(ctx context.Context, event *types.Event) error { return nil }
func (s *stubJournal) Tail(ctx context.Context, limit int) ([]*types.JournalEntry, error) {
	if limit < len(s.entries) {
		return s.entries[len(s.entries)-limit:], nil
	}
	return s.entries, nil
}
func (s *stubJournal) HealthCheck(ctx context.Context) error { return s.healthErr }
func (s *stubJournal) Close() error                          { return nil }

func newTestServer(t *testing.T, journal *stubJournal) (*Server, *store.Store) {
	t.Helper()

	st := store.New()
	if err := st.Load(store.DefaultSeed()); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	registry := &stubRegistry{stats: map[string]int{"active_connections": 2}}
	if journal == nil {
		return NewServer(st, registry, nil), st
	}
	return NewServer(st, registry, journal), st
}

func TestServer_ListFiles(t *testing.T) {
	server, st := newTestServer(t, &stubJournal{})
	if _, err := st.Add(types.FileRecord{Name: "b.js", Content: "y"}); err != nil {
		t.Fatalf("Failed to add file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp ListFilesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(resp.Files))
	}
	if resp.Files[0].Name != "file1.js" || resp.Files[1].Name != "b.js" {
		t.Errorf("Snapshot should be in insertion order, got %+v", resp.Files)
	}
}

func TestServer_ListFilesMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t, &stubJournal{})

	req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestServer_ListEvents(t *testing.T) {
	journal := &stubJournal{entries: []*types.JournalEntry{
		{Seq: 1, Type: types.EventFileAdded, FileID: "1"},
		{Seq: 2, Type: types.EventFileDeleted, FileID: "1"},
	}}
	server, _ := newTestServer(t, journal)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp ListEventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Errorf("Expected 2 events, got %d", len(resp.Events))
	}
}

func TestServer_ListEventsBadLimit(t *testing.T) {
	server, _ := newTestServer(t, &stubJournal{})

	for _, limit := range []string{"0", "-5", "abc", "100000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/events?limit="+limit, nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", limit, rec.Code)
		}
	}
}

func TestServer_ListEventsJournalDisabled(t *testing.T) {
	server, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 with journal disabled, got %d", rec.Code)
	}
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(t, &stubJournal{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
	if resp.Files != 1 {
		t.Errorf("Expected 1 file, got %d", resp.Files)
	}
	if resp.Connections["active_connections"] != 2 {
		t.Errorf("Expected registry stats passthrough, got %v", resp.Connections)
	}
}

func TestServer_HealthUnhealthyJournal(t *testing.T) {
	server, _ := newTestServer(t, &stubJournal{healthErr: errors.New("disk gone")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	server, _ := newTestServer(t, &stubJournal{})

	req := httptest.NewRequest(http.MethodOptions, "/api/files", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS headers on preflight response")
	}
}
