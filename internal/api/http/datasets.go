package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/datagroom/datagroom/internal/csvio"
	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/internal/store"
	"github.com/datagroom/datagroom/pkg/types"
)

// DatasetListResponse is the reply for GET /v1/datasets.
type DatasetListResponse struct {
	Datasets  []*store.Dataset `json:"datasets"`
	Count     int              `json:"count"`
	RequestID string           `json:"request_id"`
}

// RunDetail is the persisted run metadata in wire form.
type RunDetail struct {
	RunID      string          `json:"run_id"`
	ParserUsed string          `json:"parser_used"`
	Rules      json.RawMessage `json:"rules"`
	Warnings   []string        `json:"warnings"`
	ActionsLog []string        `json:"actions_log"`
	RowsBefore int             `json:"rows_before"`
	DurationMS int64           `json:"duration_ms"`
}

// DatasetResponse is the reply for GET /v1/datasets/{name}.
type DatasetResponse struct {
	Dataset   *store.Dataset           `json:"dataset"`
	Run       *RunDetail               `json:"run,omitempty"`
	Columns   []ColumnInfo             `json:"columns"`
	Preview   []map[string]types.Value `json:"preview"`
	RequestID string                   `json:"request_id"`
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", v), requestID)
			return
		}
		limit = n
	}

	datasets, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}

	writeJSON(w, http.StatusOK, DatasetListResponse{
		Datasets:  datasets,
		Count:     len(datasets),
		RequestID: requestID,
	})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	name := chi.URLParam(r, "name")

	ds, table, err := s.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}

	resp := DatasetResponse{
		Dataset:   ds,
		Columns:   columnsOf(table),
		Preview:   csvio.Preview(table, s.config.PreviewRows),
		RequestID: requestID,
	}

	run, err := s.store.GetRun(r.Context(), name)
	if err != nil && derrors.GetCode(err) != derrors.CodeDatasetNotFound {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}
	if run != nil {
		detail, err := runDetail(run)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode rules: %v", err), requestID)
			return
		}
		resp.Run = detail
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportDataset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	name := chi.URLParam(r, "name")

	_, table, err := s.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))

	// Headers are sent once the writer starts, so mid-stream failures can
	// only be logged.
	if err := csvio.Write(w, table, true); err != nil {
		s.logger.Error("csv export failed", zap.String("dataset", name), zap.Error(err))
	}
}

func (s *Server) handleArchiveDataset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	name := chi.URLParam(r, "name")

	if s.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "archive storage not configured", requestID)
		return
	}

	_, table, err := s.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}

	objectPath, err := s.archiver.Archive(r.Context(), name, table)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "archived",
		"dataset":    name,
		"object":     objectPath,
		"request_id": requestID,
	})
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	name := chi.URLParam(r, "name")

	if err := s.store.Delete(r.Context(), name); err != nil {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}

	if s.archiver != nil {
		if _, err := s.archiver.DeleteAll(r.Context(), name); err != nil {
			s.logger.Warn("failed to delete archived exports",
				zap.String("dataset", name),
				zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "deleted",
		"dataset":    name,
		"request_id": requestID,
	})
}

func runDetail(run *store.Run) (*RunDetail, error) {
	rulesJSON, err := types.MarshalRules(run.Rules)
	if err != nil {
		return nil, err
	}
	return &RunDetail{
		RunID:      run.RunID,
		ParserUsed: run.ParserUsed,
		Rules:      rulesJSON,
		Warnings:   run.Warnings,
		ActionsLog: run.Actions,
		RowsBefore: run.RowsBefore,
		DurationMS: run.Duration.Milliseconds(),
	}, nil
}
