// Package transport serves the analysis API over HTTP. The adapter owns
// request decoding, validation, error mapping, and the per-session
// serialization of analysis requests; everything behind it speaks the
// domain types directly.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/askframe/askframe/pkg/api"
	"github.com/askframe/askframe/pkg/dataset"
	"github.com/askframe/askframe/pkg/history"
	"github.com/askframe/askframe/pkg/observability"
	"github.com/askframe/askframe/pkg/storage"
)

// Analyzer answers one question against a session. The engine implements
// it; tests substitute fakes.
type Analyzer interface {
	Analyze(ctx context.Context, sess *storage.Session, question string) (*api.AnalyzeResponse, error)
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize     int64 // default: 10 MB
	HistoryCapacity int   // window size for new sessions, default: 10
	SampleRows      int   // rows echoed back on session creation, default: 10
	MaxTableCells   int   // dataset ingest ceiling, default: 100000000
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize:     10 << 20,
		HistoryCapacity: history.DefaultCapacity,
		SampleRows:      10,
		MaxTableCells:   100_000_000,
	}
}

// Adapter routes the session and analysis endpoints.
type Adapter struct {
	analyzer Analyzer
	store    storage.SessionStore
	gate     *sessionGate
	mux      *http.ServeMux
	cfg      Config
	logger   *slog.Logger
}

// NewAdapter creates an HTTP adapter. The analyzer and store must not be nil.
func NewAdapter(analyzer Analyzer, store storage.SessionStore, cfg Config, logger *slog.Logger) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = DefaultConfig().HistoryCapacity
	}
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = DefaultConfig().SampleRows
	}
	if cfg.MaxTableCells <= 0 {
		cfg.MaxTableCells = DefaultConfig().MaxTableCells
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		analyzer: analyzer,
		store:    store,
		gate:     newSessionGate(),
		mux:      http.NewServeMux(),
		cfg:      cfg,
		logger:   logger,
	}

	a.mux.HandleFunc("POST /v1/sessions", a.handleCreateSession)
	a.mux.HandleFunc("GET /v1/sessions", a.handleListSessions)
	a.mux.HandleFunc("GET /v1/sessions/{id}", a.handleGetSession)
	a.mux.HandleFunc("DELETE /v1/sessions/{id}", a.handleDeleteSession)
	a.mux.HandleFunc("POST /v1/sessions/{id}/analyze", a.handleAnalyze)

	return a
}

// Handler returns the http.Handler for this adapter, wrapped with the
// request metrics middleware.
func (a *Adapter) Handler() http.Handler {
	return observability.MetricsMiddleware(a.mux)
}

func (a *Adapter) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSessionRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteAPIError(w, api.NewInvalidRequestError("name", "name is required"))
		return
	}
	if len(req.Columns) == 0 {
		WriteAPIError(w, api.NewInvalidRequestError("columns", "at least one column is required"))
		return
	}
	if len(req.Rows) == 0 {
		WriteAPIError(w, api.NewInvalidRequestError("rows", "at least one row is required"))
		return
	}

	table, err := dataset.FromRows(req.Columns, req.Rows, a.cfg.MaxTableCells)
	if err != nil {
		WriteAPIError(w, api.NewInvalidRequestError("rows", err.Error()))
		return
	}

	sess := &storage.Session{
		ID:        api.NewSessionID(),
		Name:      name,
		CreatedAt: time.Now(),
		Dataset:   table,
		Window:    history.NewWindow(a.cfg.HistoryCapacity),
	}
	if err := a.store.Create(r.Context(), sess); err != nil {
		WriteAPIError(w, api.NewServerError("creating session: "+err.Error()))
		return
	}
	observability.ActiveSessions.Inc()
	a.logger.Info("session created", "session_id", sess.ID, "rows", table.NumRows(), "columns", table.NumCols())

	resp := api.CreateSessionResponse{
		SessionID:  sess.ID,
		Name:       sess.Name,
		RowCount:   table.NumRows(),
		Schema:     table.Schema(),
		Sample:     table.Sample(a.cfg.SampleRows),
		NullCounts: table.NullCounts(),
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *Adapter) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.store.List(r.Context())
	if err != nil {
		WriteAPIError(w, api.NewServerError("listing sessions: "+err.Error()))
		return
	}

	list := api.SessionList{Sessions: make([]api.SessionInfo, 0, len(sessions)), Total: len(sessions)}
	for _, sess := range sessions {
		list.Sessions = append(list.Sessions, sessionInfo(sess))
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *Adapter) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.fetchSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionInfo(sess))
}

func (a *Adapter) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateSessionID(id) {
		WriteAPIError(w, api.NewInvalidRequestError("id", "malformed session ID"))
		return
	}

	if err := a.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteAPIError(w, api.NewNotFoundError("session "+id+" not found"))
		} else {
			WriteAPIError(w, api.NewServerError("deleting session: "+err.Error()))
		}
		return
	}
	observability.ActiveSessions.Dec()
	a.logger.Info("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.fetchSession(w, r)
	if !ok {
		return
	}

	var req api.AnalyzeRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		WriteAPIError(w, api.NewInvalidRequestError("question", "question is required"))
		return
	}

	// One analysis at a time per session; concurrent questions on the
	// same session queue here.
	release := a.gate.acquire(sess.ID)
	defer release()

	resp, err := a.analyzer.Analyze(r.Context(), sess, question)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			WriteAPIError(w, apiErr)
		} else {
			WriteAPIError(w, api.NewServerError(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// fetchSession resolves the {id} path segment to a live session, writing
// the error response itself when it cannot.
func (a *Adapter) fetchSession(w http.ResponseWriter, r *http.Request) (*storage.Session, bool) {
	id := r.PathValue("id")
	if !api.ValidateSessionID(id) {
		WriteAPIError(w, api.NewInvalidRequestError("id", "malformed session ID"))
		return nil, false
	}
	sess, err := a.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteAPIError(w, api.NewNotFoundError("session "+id+" not found"))
		} else {
			WriteAPIError(w, api.NewServerError("loading session: "+err.Error()))
		}
		return nil, false
	}
	return sess, true
}

// decodeBody enforces content type and body size, then decodes JSON into
// dst. It writes the error response itself on failure.
func (a *Adapter) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.cfg.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		return false
	}
	return true
}

func sessionInfo(sess *storage.Session) api.SessionInfo {
	return api.SessionInfo{
		ID:        sess.ID,
		Name:      sess.Name,
		CreatedAt: sess.CreatedAt,
		RowCount:  sess.Dataset.NumRows(),
		Schema:    sess.Dataset.Schema(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
