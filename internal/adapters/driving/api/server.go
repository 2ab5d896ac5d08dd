// Package api exposes the result store as a small read-only JSON API,
// used to browse classified questions from a web page or curl.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

// Default listing parameters.
const (
	defaultLimit = 50
	maxLimit     = 500
)

// Server serves the read-only results API.
type Server struct {
	store driven.ResultStore
	http  *http.Server
}

// typeEntry is one row of the /api/types response.
type typeEntry struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Count       int     `json:"count"`
	Percent     float64 `json:"percent"`
}

// typesResponse is the /api/types response body.
type typesResponse struct {
	Total int         `json:"total"`
	Types []typeEntry `json:"types"`
}

// questionEntry is one row of the /api/questions response.
type questionEntry struct {
	ID         string    `json:"id"`
	GroupPath  string    `json:"group_path"`
	ItemKey    string    `json:"item_key"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	Strategy   string    `json:"strategy"`
	RecordedAt time.Time `json:"recorded_at"`
}

// questionsResponse is the /api/questions response body.
type questionsResponse struct {
	Type      string          `json:"type"`
	Limit     int             `json:"limit"`
	Offset    int             `json:"offset"`
	Questions []questionEntry `json:"questions"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a server bound to addr, backed by the given store.
func NewServer(addr string, store driven.ResultStore) *Server {
	s := &Server{store: store}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/types", s.handleTypes)
	r.Get("/api/questions", s.handleQuestions)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTypes returns the per-category distribution across the store.
func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "summary failed"})
		return
	}

	resp := typesResponse{Total: summary.Total, Types: []typeEntry{}}
	for _, cc := range summary.Distribution {
		resp.Types = append(resp.Types, typeEntry{
			Type:        string(cc.Category),
			Description: cc.Category.Description(),
			Count:       cc.Count,
			Percent:     cc.Percent,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleQuestions lists records for one category, newest first.
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseQuestionType(r.URL.Query().Get("type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown or missing type parameter"})
		return
	}

	limit := queryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := queryInt(r, "offset", 0)

	records, err := s.store.ListByCategory(r.Context(), category, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "listing failed"})
		return
	}

	resp := questionsResponse{
		Type:      string(category),
		Limit:     limit,
		Offset:    offset,
		Questions: []questionEntry{},
	}
	for _, rec := range records {
		resp.Questions = append(resp.Questions, questionEntry{
			ID:         rec.ID,
			GroupPath:  rec.GroupPath,
			ItemKey:    rec.ItemKey,
			Type:       string(rec.Category),
			Content:    rec.Content,
			Confidence: rec.Confidence,
			Strategy:   string(rec.Strategy),
			RecordedAt: rec.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// queryInt parses a non-negative integer query parameter.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
