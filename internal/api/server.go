package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/KhamessiTaha/collaborative-code-editor/pkg/interfaces"
	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// FileLister is the read-only view of the file store the API needs.
type FileLister interface {
	List() []types.FileRecord
	Count() int
}

// Registry is the connection statistics source, declared locally to avoid
// coupling to the websocket implementation.
type Registry interface {
	Stats() map[string]int
}

// Server is the observational HTTP surface: file snapshot, journal tail,
// health. No business logic and no mutation; every state change goes
// through the session gateway.
type Server struct {
	store    FileLister
	registry Registry
	journal  interfaces.EventJournal // optional, may be nil
	router   *http.ServeMux
}

// NewServer creates the API server. The journal may be nil when
// journaling is disabled.
func NewServer(store FileLister, registry Registry, journal interfaces.EventJournal) *Server {
	s := &Server{
		store:    store,
		registry: registry,
		journal:  journal,
		router:   http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/files", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.listFiles))))
	s.router.Handle("/api/events", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.listEvents))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListFilesResponse is the payload of GET /api/files.
type ListFilesResponse struct {
	Files []types.FileRecord `json:"files"`
}

// ListEventsResponse is the payload of GET /api/events.
type ListEventsResponse struct {
	Events []*types.JournalEntry `json:"events"`
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Journal     string         `json:"journal"`
	Files       int            `json:"files"`
	Connections map[string]int `json:"connections"`
}

// ErrorResponse is the consistent error payload for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// listFiles handles GET /api/files: the current store snapshot in
// insertion order.
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	json.NewEncoder(w).Encode(ListFilesResponse{Files: s.store.List()})
}

// listEvents handles GET /api/events?limit=N: the journal tail in
// chronological order.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.journal == nil {
		s.sendError(w, "Event journal is disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			s.sendError(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := s.journal.Tail(r.Context(), limit)
	if err != nil {
		s.sendError(w, "Failed to read event journal", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*types.JournalEntry{}
	}

	json.NewEncoder(w).Encode(ListEventsResponse{Events: entries})
}

// healthCheck handles GET /health with component status and registry stats.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	journalStatus := "disabled"

	if s.journal != nil {
		journalStatus = "healthy"
		if err := s.journal.HealthCheck(ctx); err != nil {
			status = "unhealthy"
			journalStatus = "error: " + err.Error()
		}
	}

	response := HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Journal:     journalStatus,
		Files:       s.store.Count(),
		Connections: s.registry.Stats(),
	}

	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

// corsMiddleware allows web clients from any origin; deployments wanting
// stricter policy put a proxy in front.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
