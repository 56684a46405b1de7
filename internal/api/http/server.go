// Package http provides the JSON HTTP API for the datagroom service.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/datagroom/datagroom/internal/archive"
	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/internal/observability"
	"github.com/datagroom/datagroom/internal/pipeline"
	"github.com/datagroom/datagroom/internal/store"
)

// Config bounds what the API accepts.
type Config struct {
	// MaxUploadBytes caps the request body of cleaning requests.
	MaxUploadBytes int64

	// PreviewRows is how many table rows responses include.
	PreviewRows int
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		MaxUploadBytes: 100 * 1024 * 1024,
		PreviewRows:    10,
	}
}

// Server routes cleaning and dataset requests to the pipeline, the store,
// and the archiver.
type Server struct {
	config   Config
	pipeline *pipeline.Pipeline
	store    *store.Store
	archiver *archive.Archiver
	stats    *observability.RunStats
	logger   *zap.Logger
	router   *chi.Mux
}

// NewServer wires the API. archiver may be nil when no archive storage is
// configured; stats may be nil.
func NewServer(cfg Config, pipe *pipeline.Pipeline, st *store.Store, arch *archive.Archiver, stats *observability.RunStats, logger *zap.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultConfig().PreviewRows
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:   cfg,
		pipeline: pipe,
		store:    st,
		archiver: arch,
		stats:    stats,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/clean", s.handleClean)
		r.Get("/datasets", s.handleListDatasets)
		r.Get("/datasets/{name}", s.handleGetDataset)
		r.Get("/datasets/{name}/export", s.handleExportDataset)
		r.Post("/datasets/{name}/archive", s.handleArchiveDataset)
		r.Delete("/datasets/{name}", s.handleDeleteDataset)
		r.Get("/stats", s.handleStats)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "datagroom"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusOK, observability.NewRunStats().Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, RequestID: requestID})
}

// statusForError maps pipeline error codes to HTTP status codes.
func statusForError(err error) int {
	switch derrors.GetCode(err) {
	case derrors.CodeDatasetNotFound, derrors.CodeObjectNotFound, derrors.CodeFileNotFound:
		return http.StatusNotFound
	case derrors.CodeWriteConflict:
		return http.StatusConflict
	case derrors.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case derrors.CodeModelUnavailable:
		return http.StatusServiceUnavailable
	}

	switch derrors.GetCategory(err) {
	case derrors.ErrCategoryValidation, derrors.ErrCategoryLoad:
		return http.StatusBadRequest
	case derrors.ErrCategoryArchive:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
