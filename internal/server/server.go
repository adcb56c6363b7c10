package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"danmu/internal/api"
	"danmu/internal/history"
	"danmu/internal/logging"
	"danmu/internal/services"
)

// Server routes player requests onto an open runtime.
type Server struct {
	router  chi.Router
	runtime *api.Runtime
	logger  *slog.Logger
}

// New builds the HTTP surface over an already-open runtime. The caller
// retains ownership of the runtime and closes it after the server stops.
func New(runtime *api.Runtime, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		router:  chi.NewRouter(),
		runtime: runtime,
		logger:  logger.With(logging.String(logging.FieldComponent, "server")),
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/danmu", s.handleDanmu)
		r.Get("/sources", s.handleSources)
		r.Post("/sources/switch", s.handleSwitchSource)
		r.Get("/episodes", s.handleEpisodes)
		r.Post("/episodes/load", s.handleLoadEpisode)
		r.Get("/history", s.handleHistoryList)
		r.Post("/history", s.handleHistoryRecord)
		r.Delete("/history", s.handleHistoryClear)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		r = r.WithContext(services.WithRequestID(r.Context(), requestID))
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		s.logger.Info("http request",
			logging.String("request_id", requestID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", recorder.statusCode),
			logging.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.runtime.Store.DB().PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDanmu resolves the comment track for one episode. Resolution
// failures surface as an empty comment list, never an error status, so a
// player overlay can treat every response the same way.
func (s *Server) handleDanmu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	req := api.ResolveRequest{
		Config:       s.runtime.Config,
		Title:        title,
		EpisodeIndex: queryInt(q.Get("episode"), 0),
		EpisodeCount: queryInt(q.Get("count"), 0),
		VideoKey:     q.Get("key"),
	}
	ctx := services.WithTitle(r.Context(), req.Title)
	ctx = services.WithEpisodeIndex(ctx, req.EpisodeIndex)
	result, err := api.ResolveWith(ctx, s.runtime, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	options, err := s.runtime.Session.ListSources(r.Context(), title, queryInt(q.Get("count"), 0))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, options)
}

type switchSourceRequest struct {
	Title        string `json:"title"`
	SourceID     int64  `json:"sourceId"`
	EpisodeIndex int    `json:"episodeIndex"`
	EpisodeCount int    `json:"episodeCount"`
}

func (s *Server) handleSwitchSource(w http.ResponseWriter, r *http.Request) {
	var req switchSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.SourceID <= 0 {
		writeError(w, http.StatusBadRequest, "title and sourceId are required")
		return
	}
	resolution := s.runtime.Session.SwitchSource(r.Context(), req.Title, req.SourceID, req.EpisodeIndex, req.EpisodeCount)
	writeJSON(w, http.StatusOK, resolution)
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	sourceID := int64(queryInt(q.Get("sourceId"), 0))
	if sourceID > 0 {
		if entry, ok := s.runtime.Store.GetDetailBySource(r.Context(), sourceID); ok {
			writeJSON(w, http.StatusOK, entry)
			return
		}
	}
	resolution := s.runtime.Session.Resolve(r.Context(), title, 0, 0)
	if !resolution.Resolved {
		writeError(w, http.StatusNotFound, "no danmaku source resolved")
		return
	}
	entry, ok := s.runtime.Store.GetDetailBySource(r.Context(), resolution.SourceID)
	if !ok {
		writeError(w, http.StatusNotFound, "detail entry missing")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type loadEpisodeRequest struct {
	Title        string `json:"title"`
	EpisodeIndex int    `json:"episodeIndex"`
}

// handleLoadEpisode loads the comments of an explicitly chosen remote
// episode, bypassing local episode matching. It requires a prior resolve on
// this runtime so the active source's episode list is cached.
func (s *Server) handleLoadEpisode(w http.ResponseWriter, r *http.Request) {
	var req loadEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.EpisodeIndex < 0 {
		writeError(w, http.StatusBadRequest, "title and a non-negative episodeIndex are required")
		return
	}
	resolution := s.runtime.Session.LoadEpisode(r.Context(), req.Title, req.EpisodeIndex)
	writeJSON(w, http.StatusOK, resolution)
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.runtime.History.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type historyRecordRequest struct {
	VideoKey        string  `json:"videoKey"`
	Title           string  `json:"title"`
	SourceKey       string  `json:"sourceKey"`
	EpisodeIndex    int     `json:"episodeIndex"`
	PositionSeconds float64 `json:"positionSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
}

func (s *Server) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	var req historyRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry := history.Entry{
		VideoKey:        req.VideoKey,
		Title:           req.Title,
		SourceKey:       req.SourceKey,
		EpisodeIndex:    req.EpisodeIndex,
		PositionSeconds: req.PositionSeconds,
		DurationSeconds: req.DurationSeconds,
	}
	if err := s.runtime.History.Record(r.Context(), entry); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.runtime.History.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
