package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/datagroom/datagroom/internal/csvio"
	"github.com/datagroom/datagroom/internal/pipeline"
	"github.com/datagroom/datagroom/internal/store"
	"github.com/datagroom/datagroom/pkg/types"
)

// CleanRequest is the JSON body for POST /v1/clean. The same fields arrive
// as form values when the CSV comes as a multipart file upload instead.
type CleanRequest struct {
	CSV    string `json:"csv"`
	Prompt string `json:"prompt"`
	Name   string `json:"name,omitempty"`
	Save   bool   `json:"save,omitempty"`
}

// ColumnInfo describes one column of a table in wire form.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// CleanResponse is the reply for POST /v1/clean.
type CleanResponse struct {
	RunID      string                   `json:"run_id"`
	ParserUsed string                   `json:"parser_used"`
	Rules      json.RawMessage          `json:"rules"`
	Warnings   []string                 `json:"warnings"`
	ActionsLog []string                 `json:"actions_log"`
	RowsBefore int                      `json:"rows_before"`
	RowsAfter  int                      `json:"rows_after"`
	Columns    []ColumnInfo             `json:"columns"`
	Preview    []map[string]types.Value `json:"preview"`
	Dataset    *store.Dataset           `json:"dataset,omitempty"`
	RequestID  string                   `json:"request_id"`
}

// handleClean runs one cleaning request end to end: load the CSV, translate
// the prompt, apply the rules, and optionally save the result.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	raw, prompt, name, save, sourceFile, ok := s.readCleanRequest(w, r, requestID)
	if !ok {
		return
	}

	table, _, err := csvio.LoadBytes(raw, sourceFile)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}

	summary, err := s.pipeline.Run(r.Context(), pipeline.Request{Prompt: prompt, Table: table})
	if err != nil {
		writeError(w, statusForError(err), err.Error(), requestID)
		return
	}

	rulesJSON, err := types.MarshalRules(summary.Rules)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode rules: %v", err), requestID)
		return
	}

	resp := CleanResponse{
		RunID:      summary.RunID,
		ParserUsed: summary.ParserUsed,
		Rules:      rulesJSON,
		Warnings:   summary.Warnings,
		ActionsLog: summary.Actions,
		RowsBefore: summary.RowsBefore,
		RowsAfter:  summary.RowsAfter,
		Columns:    columnsOf(summary.Table),
		Preview:    csvio.Preview(summary.Table, s.config.PreviewRows),
		RequestID:  requestID,
	}

	if save {
		ds, err := s.store.Save(r.Context(), store.SaveRequest{
			Name:         name,
			OriginalFile: sourceFile,
			Prompt:       prompt,
			RunID:        summary.RunID,
			ParserUsed:   summary.ParserUsed,
			Rules:        summary.Rules,
			Warnings:     summary.Warnings,
			Actions:      summary.Actions,
			RowsBefore:   summary.RowsBefore,
			Duration:     summary.Duration,
			Table:        summary.Table,
		})
		if err != nil {
			writeError(w, statusForError(err), err.Error(), requestID)
			return
		}
		resp.Dataset = ds
	}

	writeJSON(w, http.StatusOK, resp)
}

// readCleanRequest extracts the CSV bytes and run parameters from either a
// JSON or a multipart body. It writes the error reply itself when ok is
// false.
func (s *Server) readCleanRequest(w http.ResponseWriter, r *http.Request, requestID string) (raw []byte, prompt, name string, save bool, sourceFile string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large or invalid form", requestID)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "no file provided", requestID)
			return
		}
		defer file.Close()

		raw, err = io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to read file", requestID)
			return
		}
		prompt = r.FormValue("prompt")
		name = r.FormValue("name")
		if v := r.FormValue("save"); v != "" {
			save, _ = strconv.ParseBool(v)
		}
		sourceFile = header.Filename
	} else {
		var req CleanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
			return
		}
		raw = []byte(req.CSV)
		prompt = req.Prompt
		name = req.Name
		save = req.Save
		sourceFile = req.Name
		if sourceFile == "" {
			sourceFile = "inline.csv"
		}
	}

	if strings.TrimSpace(prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required", requestID)
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "csv data is required", requestID)
		return
	}

	ok = true
	return
}

func columnsOf(t types.Table) []ColumnInfo {
	out := make([]ColumnInfo, 0, t.NumCols())
	for _, c := range t.Cols {
		out = append(out, ColumnInfo{Name: c.Name, Kind: c.Kind.String()})
	}
	return out
}
