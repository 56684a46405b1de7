package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datagroom/datagroom/internal/archive"
	"github.com/datagroom/datagroom/internal/executor"
	"github.com/datagroom/datagroom/internal/observability"
	"github.com/datagroom/datagroom/internal/parser"
	"github.com/datagroom/datagroom/internal/pipeline"
	"github.com/datagroom/datagroom/internal/storage"
	"github.com/datagroom/datagroom/internal/store"
)

const sampleCSV = "name,age,city\nalice,30,nyc\nbob,25,sf\nalice,30,nyc\n"

func newTestServer(t *testing.T) (*Server, *storage.LocalStorage) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "datagroom.db"), nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	local, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	engine, err := parser.New(parser.NewPatternStrategy())
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	stats := observability.NewRunStats()
	pipe := pipeline.New(engine, executor.New(nil), stats, nil)

	return NewServer(DefaultConfig(), pipe, st, archive.New(local, nil), stats, nil), local
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func cleanAndSave(t *testing.T, srv *Server, name string) CleanResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/v1/clean", CleanRequest{
		CSV:    sampleCSV,
		Prompt: "remove duplicates",
		Name:   name,
		Save:   true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp CleanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body)
	}
}

func TestCleanInlineCSV(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/clean", CleanRequest{
		CSV:    sampleCSV,
		Prompt: "remove duplicates",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CleanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.ParserUsed != "pattern" {
		t.Errorf("expected pattern parser, got %s", resp.ParserUsed)
	}
	if resp.RowsBefore != 3 || resp.RowsAfter != 2 {
		t.Errorf("expected 3 rows in, 2 out, got %d and %d", resp.RowsBefore, resp.RowsAfter)
	}
	if len(resp.ActionsLog) != 1 {
		t.Errorf("expected one action log entry, got %v", resp.ActionsLog)
	}
	if len(resp.Preview) != 2 {
		t.Errorf("expected 2 preview rows, got %d", len(resp.Preview))
	}
	if len(resp.Columns) != 3 || resp.Columns[1].Kind != "int" {
		t.Errorf("unexpected columns %v", resp.Columns)
	}
	if resp.RunID == "" || resp.RequestID == "" {
		t.Error("expected run_id and request_id in response")
	}
	if resp.Dataset != nil {
		t.Error("expected no dataset without save")
	}
}

func TestCleanMultipartUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sales.csv")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	fw.Write([]byte(sampleCSV))
	mw.WriteField("prompt", "remove duplicates")
	mw.WriteField("name", "sales")
	mw.WriteField("save", "true")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/clean", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CleanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Dataset == nil {
		t.Fatal("expected dataset in response after save")
	}
	if resp.Dataset.Name != "sales" {
		t.Errorf("expected dataset name sales, got %s", resp.Dataset.Name)
	}
	if resp.Dataset.OriginalFile != "sales.csv" {
		t.Errorf("expected original file from the upload, got %s", resp.Dataset.OriginalFile)
	}
	if resp.Dataset.RowCount != 2 {
		t.Errorf("expected 2 saved rows, got %d", resp.Dataset.RowCount)
	}
}

func TestCleanValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		req  CleanRequest
	}{
		{"missing prompt", CleanRequest{CSV: sampleCSV}},
		{"missing csv", CleanRequest{Prompt: "remove duplicates"}},
	}
	for _, tt := range tests {
		rec := doJSON(t, srv, http.MethodPost, "/v1/clean", tt.req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", tt.name, rec.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: failed to unmarshal error: %v", tt.name, err)
		}
		if resp.Error == "" || resp.RequestID == "" {
			t.Errorf("%s: expected error and request_id, got %+v", tt.name, resp)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/clean", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected status 400, got %d", rec.Code)
	}
}

func TestListAndGetDataset(t *testing.T) {
	srv, _ := newTestServer(t)
	cleanAndSave(t, srv, "customers")

	rec := doJSON(t, srv, http.MethodGet, "/v1/datasets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var list DatasetListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to unmarshal list: %v", err)
	}
	if list.Count != 1 || len(list.Datasets) != 1 {
		t.Fatalf("expected one dataset, got %+v", list)
	}
	if list.Datasets[0].Name != "customers" {
		t.Errorf("expected dataset customers, got %s", list.Datasets[0].Name)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/datasets/customers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ds DatasetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ds); err != nil {
		t.Fatalf("failed to unmarshal dataset: %v", err)
	}
	if ds.Dataset == nil || ds.Dataset.RowCount != 2 {
		t.Fatalf("unexpected dataset %+v", ds.Dataset)
	}
	if ds.Run == nil {
		t.Fatal("expected run detail")
	}
	if ds.Run.ParserUsed != "pattern" || ds.Run.RowsBefore != 3 {
		t.Errorf("unexpected run detail %+v", ds.Run)
	}
	var rules []map[string]json.RawMessage
	if err := json.Unmarshal(ds.Run.Rules, &rules); err != nil || len(rules) != 1 {
		t.Errorf("expected one rule in run detail, got %s", ds.Run.Rules)
	}
	if len(ds.Preview) != 2 {
		t.Errorf("expected 2 preview rows, got %d", len(ds.Preview))
	}
}

func TestListDatasetsRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/datasets?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/datasets/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error: %v", err)
	}
	if resp.RequestID == "" {
		t.Error("expected request_id in error reply")
	}
}

func TestExportDataset(t *testing.T) {
	srv, _ := newTestServer(t)
	cleanAndSave(t, srv, "customers")

	rec := doJSON(t, srv, http.MethodGet, "/v1/datasets/customers/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv content type, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="customers.csv"`) {
		t.Errorf("unexpected content disposition %s", cd)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "\ufeff") {
		t.Error("expected UTF-8 BOM prefix")
	}
	if !strings.Contains(body, "name,age,city") {
		t.Errorf("expected CSV header in body, got %q", body)
	}
	// 1 header + 2 deduplicated rows
	if lines := strings.Count(strings.TrimRight(body, "\n"), "\n") + 1; lines != 3 {
		t.Errorf("expected 3 CSV lines, got %d", lines)
	}
}

func TestArchiveDataset(t *testing.T) {
	srv, local := newTestServer(t)
	cleanAndSave(t, srv, "customers")

	rec := doJSON(t, srv, http.MethodPost, "/v1/datasets/customers/archive", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	object := resp["object"]
	if !strings.HasPrefix(object, "exports/customers/") {
		t.Fatalf("unexpected object path %s", object)
	}
	exists, err := local.Exists(context.Background(), object)
	if err != nil || !exists {
		t.Errorf("expected archive object in storage, got exists=%v err=%v", exists, err)
	}
}

func TestDeleteDataset(t *testing.T) {
	srv, _ := newTestServer(t)
	cleanAndSave(t, srv, "customers")

	rec := doJSON(t, srv, http.MethodDelete, "/v1/datasets/customers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/datasets/customers", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/v1/datasets/customers", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 deleting twice, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/clean", CleanRequest{
		CSV:    sampleCSV,
		Prompt: "remove duplicates",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var snap observability.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to unmarshal stats: %v", err)
	}
	if snap.TotalRuns != 1 {
		t.Errorf("expected 1 run, got %d", snap.TotalRuns)
	}
	if snap.ParserRuns["pattern"] != 1 {
		t.Errorf("expected 1 pattern parse, got %v", snap.ParserRuns)
	}
	if snap.RowsIn != 3 || snap.RowsOut != 2 {
		t.Errorf("expected 3 rows in and 2 out, got %d and %d", snap.RowsIn, snap.RowsOut)
	}
}
