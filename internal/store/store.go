package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/pkg/types"
)

// Dataset is a registry row describing one saved cleaned dataset.
type Dataset struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	TableName    string    `json:"table_name"`
	OriginalFile string    `json:"original_file"`
	Prompt       string    `json:"prompt"`
	RowCount     int       `json:"row_count"`
	ColumnCount  int       `json:"column_count"`
	ParserUsed   string    `json:"parser_used"`
	RowsBefore   int       `json:"rows_before"`
	CreatedAt    time.Time `json:"created_at"`
}

// Run records how a dataset was produced: the typed rules, the action log,
// which parser strategy translated the prompt, and timing.
type Run struct {
	RunID      string
	Rules      []types.Rule
	Actions    []string
	Warnings   []string
	ParserUsed string
	RowsBefore int
	Duration   time.Duration
	CreatedAt  time.Time
}

// SaveRequest carries everything recorded about one cleaning run.
type SaveRequest struct {
	Name         string // optional; derived from the table name when empty
	OriginalFile string
	Prompt       string
	RunID        string // optional; generated when empty
	ParserUsed   string
	Rules        []types.Rule
	Warnings     []string
	Actions      []string
	RowsBefore   int
	Duration     time.Duration
	Table        types.Table
}

// savedColumn is the wire shape of one column in columns_json. Cell values
// are stored as TEXT, so the kind is kept here to restore typed columns.
type savedColumn struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Store is the SQLite-backed dataset registry.
type Store struct {
	db     *sql.DB // Write connection (single writer)
	readDB *sql.DB // Read connection pool (concurrent readers)
	dbPath string
	mu     sync.Mutex // Write-only lock (reads don't need this)

	// Prepared statement for the by-name registry lookup (read connection)
	getDatasetStmt *sql.Stmt

	logger *zap.Logger
}

const getDatasetSQL = `
	SELECT d.id, d.name, d.table_name, d.original_file, d.prompt,
		d.row_count, d.column_count, d.columns_json, d.created_at,
		COALESCE(m.parser_used, ''), COALESCE(m.rows_before, 0)
	FROM cleaned_datasets d
	LEFT JOIN cleaning_metadata m ON m.dataset_id = d.id
	WHERE d.name = ?`

// New opens (or creates) the dataset registry at dbPath.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to create database directory", err)
	}

	// Write connection: single writer with WAL mode
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to open database", err)
	}
	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		logger: logger,
	}

	// Initialize schema before the read pool touches the file, so a fresh
	// path works with mode=ro below.
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to initialize schema", err)
	}

	// Read connection pool: concurrent readers via read-only mode
	readDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		db.Close()
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to open read database", err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(5 * time.Minute)

	// Enable read_uncommitted on read connections so readers never block on the writer
	if _, err := readDB.Exec("PRAGMA read_uncommitted = true"); err != nil {
		readDB.Close()
		db.Close()
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to set read_uncommitted pragma", err)
	}
	s.readDB = readDB

	getStmt, err := readDB.Prepare(getDatasetSQL)
	if err != nil {
		readDB.Close()
		db.Close()
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to prepare lookup statement", err)
	}
	s.getDatasetStmt = getStmt

	return s, nil
}

// initSchema creates the registry tables and indexes.
func (s *Store) initSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range AllSchemaSQL() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Save persists a cleaned table under its own data table and records the
// run in the registry. The dataset name must be unique; when the request
// carries no name, one is derived from the generated table name.
func (s *Store) Save(ctx context.Context, req SaveRequest) (*Dataset, error) {
	if req.Table.NumCols() == 0 {
		return nil, derrors.NewValidationError(derrors.CodeEmptyTable, "cannot save a table with no columns")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	tableName, err := s.reserveTableName(ctx, tableNameFor(req.OriginalFile, now))
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimPrefix(tableName, "data_")
	}
	var existingID int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM cleaned_datasets WHERE name = ?", name).Scan(&existingID)
	switch {
	case err == nil:
		return nil, derrors.New(derrors.ErrCategoryStore, derrors.CodeWriteConflict,
			fmt.Sprintf("dataset %q already exists", name))
	case err != sql.ErrNoRows:
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to check dataset name", err)
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	columns := make([]savedColumn, req.Table.NumCols())
	for i, col := range req.Table.Cols {
		columns[i] = savedColumn{Name: col.Name, Kind: col.Kind.String()}
	}
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to marshal columns", err)
	}
	rulesJSON, err := types.MarshalRules(req.Rules)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to marshal rules", err)
	}
	actionsJSON, err := marshalStrings(req.Actions)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to marshal action log", err)
	}
	warningsJSON, err := marshalStrings(req.Warnings)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to marshal warnings", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createDataTableSQL(tableName, req.Table.ColumnNames())); err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to create data table", err)
	}
	if err := insertRows(ctx, tx, tableName, req.Table); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO cleaned_datasets (name, table_name, original_file, prompt, row_count, column_count, columns_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		name, tableName, req.OriginalFile, req.Prompt,
		req.Table.NumRows(), req.Table.NumCols(), string(columnsJSON), now.Unix(),
	)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to insert dataset record", err)
	}
	datasetID, err := res.LastInsertId()
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to read dataset id", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cleaning_metadata (dataset_id, run_id, rules_json, actions_json, warnings_json, parser_used, rows_before, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		datasetID, runID, string(rulesJSON), string(actionsJSON), string(warningsJSON),
		req.ParserUsed, req.RowsBefore, req.Duration.Milliseconds(), now.Unix(),
	)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to insert cleaning metadata", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to commit transaction", err)
	}

	s.logger.Info("dataset saved",
		zap.String("name", name),
		zap.String("table", tableName),
		zap.Int("rows", req.Table.NumRows()),
		zap.Int("columns", req.Table.NumCols()),
	)

	return &Dataset{
		ID:           datasetID,
		Name:         name,
		TableName:    tableName,
		OriginalFile: req.OriginalFile,
		Prompt:       req.Prompt,
		RowCount:     req.Table.NumRows(),
		ColumnCount:  req.Table.NumCols(),
		ParserUsed:   req.ParserUsed,
		RowsBefore:   req.RowsBefore,
		CreatedAt:    time.Unix(now.Unix(), 0),
	}, nil
}

// insertRows copies every table cell into the data table. Missing cells
// become NULL; everything else is stored in its string form.
func insertRows(ctx context.Context, tx *sql.Tx, tableName string, t types.Table) error {
	if t.NumRows() == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, insertRowSQL(tableName, t.ColumnNames()))
	if err != nil {
		return derrors.NewStoreError(derrors.CodeStoreFailed, "failed to prepare row insert", err)
	}
	defer stmt.Close()

	args := make([]interface{}, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for c, col := range t.Cols {
			cell := col.Cells[r]
			if cell.Kind == types.KindMissing {
				args[c] = nil
			} else {
				args[c] = cell.String()
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return derrors.NewStoreError(derrors.CodeStoreFailed, "failed to insert data row", err)
		}
	}
	return nil
}

// List returns registry rows, newest first. A non-positive limit returns
// all datasets.
func (s *Store) List(ctx context.Context, limit int) ([]*Dataset, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.readDB.QueryContext(ctx,
		`SELECT d.id, d.name, d.table_name, d.original_file, d.prompt,
			d.row_count, d.column_count, d.created_at,
			COALESCE(m.parser_used, ''), COALESCE(m.rows_before, 0)
		FROM cleaned_datasets d
		LEFT JOIN cleaning_metadata m ON m.dataset_id = d.id
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to query datasets", err)
	}
	defer rows.Close()

	var datasets []*Dataset
	for rows.Next() {
		var d Dataset
		var createdAtUnix int64
		if err := rows.Scan(
			&d.ID, &d.Name, &d.TableName, &d.OriginalFile, &d.Prompt,
			&d.RowCount, &d.ColumnCount, &createdAtUnix,
			&d.ParserUsed, &d.RowsBefore,
		); err != nil {
			return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to scan dataset record", err)
		}
		d.CreatedAt = time.Unix(createdAtUnix, 0)
		datasets = append(datasets, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "error iterating datasets", err)
	}
	return datasets, nil
}

// Get retrieves a dataset and its table by name.
func (s *Store) Get(ctx context.Context, name string) (*Dataset, types.Table, error) {
	d, columns, err := s.getRegistryRow(ctx, name)
	if err != nil {
		return nil, types.Table{}, err
	}

	t, err := s.loadDataTable(ctx, d.TableName, columns)
	if err != nil {
		return nil, types.Table{}, err
	}
	return d, t, nil
}

// getRegistryRow looks up the registry row and saved column layout by name.
func (s *Store) getRegistryRow(ctx context.Context, name string) (*Dataset, []savedColumn, error) {
	var d Dataset
	var columnsJSON string
	var createdAtUnix int64
	err := s.getDatasetStmt.QueryRowContext(ctx, name).Scan(
		&d.ID, &d.Name, &d.TableName, &d.OriginalFile, &d.Prompt,
		&d.RowCount, &d.ColumnCount, &columnsJSON, &createdAtUnix,
		&d.ParserUsed, &d.RowsBefore,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, derrors.NewStoreError(derrors.CodeDatasetNotFound,
				fmt.Sprintf("dataset %q not found", name), nil)
		}
		return nil, nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to scan dataset record", err)
	}
	d.CreatedAt = time.Unix(createdAtUnix, 0)

	var columns []savedColumn
	if err := json.Unmarshal([]byte(columnsJSON), &columns); err != nil {
		return nil, nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to decode saved columns", err)
	}
	return &d, columns, nil
}

// loadDataTable reads a data table back into a typed table, restoring each
// column's kind from the saved layout.
func (s *Store) loadDataTable(ctx context.Context, tableName string, columns []savedColumn) (types.Table, error) {
	quoted := make([]string, len(columns))
	cols := make([]types.Column, len(columns))
	for i, sc := range columns {
		quoted[i] = quoteIdent(sc.Name)
		kind, _ := types.ParseKind(sc.Kind)
		cols[i] = types.Column{Name: sc.Name, Kind: kind, Cells: []types.Value{}}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(tableName))
	rows, err := s.readDB.QueryContext(ctx, query)
	if err != nil {
		return types.Table{}, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to query data table", err)
	}
	defer rows.Close()

	cells := make([]sql.NullString, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return types.Table{}, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to scan data row", err)
		}
		for i, cell := range cells {
			if !cell.Valid {
				cols[i].Cells = append(cols[i].Cells, types.MissingValue())
				continue
			}
			cols[i].Cells = append(cols[i].Cells, parseCell(cols[i].Kind, cell.String))
		}
	}
	if err := rows.Err(); err != nil {
		return types.Table{}, derrors.NewStoreError(derrors.CodeStoreFailed, "error iterating data rows", err)
	}
	return types.Table{Cols: cols}, nil
}

// GetRun retrieves the cleaning run record for a dataset.
func (s *Store) GetRun(ctx context.Context, name string) (*Run, error) {
	var run Run
	var rulesJSON, actionsJSON, warningsJSON string
	var durationMS, createdAtUnix int64
	err := s.readDB.QueryRowContext(ctx,
		`SELECT m.run_id, m.rules_json, m.actions_json, m.warnings_json,
			m.parser_used, m.rows_before, m.duration_ms, m.created_at
		FROM cleaning_metadata m
		JOIN cleaned_datasets d ON d.id = m.dataset_id
		WHERE d.name = ?`,
		name,
	).Scan(
		&run.RunID, &rulesJSON, &actionsJSON, &warningsJSON,
		&run.ParserUsed, &run.RowsBefore, &durationMS, &createdAtUnix,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, derrors.NewStoreError(derrors.CodeDatasetNotFound,
				fmt.Sprintf("dataset %q not found", name), nil)
		}
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to scan run record", err)
	}

	rules, err := types.UnmarshalRules([]byte(rulesJSON))
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to decode saved rules", err)
	}
	run.Rules = rules
	if err := json.Unmarshal([]byte(actionsJSON), &run.Actions); err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to decode action log", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to decode warnings", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.CreatedAt = time.Unix(createdAtUnix, 0)
	return &run, nil
}

// Delete removes a dataset: its data table, metadata, and registry row.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	var tableName string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, table_name FROM cleaned_datasets WHERE name = ?", name,
	).Scan(&id, &tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return derrors.NewStoreError(derrors.CodeDatasetNotFound,
				fmt.Sprintf("dataset %q not found", name), nil)
		}
		return derrors.NewStoreError(derrors.CodeStoreFailed, "failed to look up dataset", err)
	}

	if err := s.deleteLocked(ctx, id, tableName); err != nil {
		return err
	}

	s.logger.Info("dataset deleted", zap.String("name", name), zap.String("table", tableName))
	return nil
}

// DeleteExpired removes datasets created before now-ttl and returns their
// names so callers can clean up archived exports.
func (s *Store) DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl).Unix()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, table_name FROM cleaned_datasets WHERE created_at < ?", cutoff,
	)
	if err != nil {
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to query expired datasets", err)
	}

	type expired struct {
		id        int64
		name      string
		tableName string
	}
	var candidates []expired
	for rows.Next() {
		var e expired
		if err := rows.Scan(&e.id, &e.name, &e.tableName); err != nil {
			rows.Close()
			return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "failed to scan expired dataset", err)
		}
		candidates = append(candidates, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, derrors.NewStoreError(derrors.CodeStoreFailed, "error iterating expired datasets", err)
	}
	rows.Close()

	var deleted []string
	for _, e := range candidates {
		if err := s.deleteLocked(ctx, e.id, e.tableName); err != nil {
			return deleted, err
		}
		deleted = append(deleted, e.name)
	}

	if len(deleted) > 0 {
		s.logger.Info("expired datasets deleted", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

// deleteLocked drops a data table and both registry rows in one transaction.
// Callers must hold s.mu.
func (s *Store) deleteLocked(ctx context.Context, id int64, tableName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return derrors.NewStoreError(derrors.CodeStoreFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(tableName)); err != nil {
		return derrors.NewStoreError(derrors.CodeStoreFailed, "failed to drop data table", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM cleaning_metadata WHERE dataset_id = ?", id); err != nil {
		return derrors.NewStoreError(derrors.CodeStoreFailed, "failed to delete cleaning metadata", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM cleaned_datasets WHERE id = ?", id); err != nil {
		return derrors.NewStoreError(derrors.CodeStoreFailed, "failed to delete dataset record", err)
	}

	if err := tx.Commit(); err != nil {
		return derrors.NewStoreError(derrors.CodeStoreFailed, "failed to commit transaction", err)
	}
	return nil
}

// Close closes the registry database connections.
func (s *Store) Close() error {
	if s.getDatasetStmt != nil {
		s.getDatasetStmt.Close()
	}

	// Close read connection first, then write connection
	if err := s.readDB.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// reserveTableName bumps a numeric suffix onto base until the table name is
// unused. Callers must hold s.mu.
func (s *Store) reserveTableName(ctx context.Context, base string) (string, error) {
	name := base
	for n := 2; ; n++ {
		var count int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM cleaned_datasets WHERE table_name = ?", name,
		).Scan(&count)
		if err != nil {
			return "", derrors.NewStoreError(derrors.CodeStoreFailed, "failed to check table name", err)
		}
		if count == 0 {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
}

var (
	nonWordRe       = regexp.MustCompile(`[^\w]`)
	underscoreRunRe = regexp.MustCompile(`_+`)
)

// tableNameFor derives the physical table name from the original filename,
// e.g. "Sales Q3.csv" saved at 2024-01-15 10:30:00 UTC becomes
// "data_sales_q3_20240115_103000".
func tableNameFor(originalFile string, now time.Time) string {
	base := filepath.Base(originalFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	clean := nonWordRe.ReplaceAllString(strings.ToLower(base), "_")
	clean = strings.Trim(underscoreRunRe.ReplaceAllString(clean, "_"), "_")
	if clean == "" {
		clean = "dataset"
	}
	return fmt.Sprintf("data_%s_%s", clean, now.Format("20060102_150405"))
}

// quoteIdent quotes a SQLite identifier, doubling any embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func createDataTableSQL(tableName string, columnNames []string) string {
	defs := make([]string, len(columnNames))
	for i, name := range columnNames {
		defs[i] = quoteIdent(name) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(defs, ", "))
}

func insertRowSQL(tableName string, columnNames []string) string {
	quoted := make([]string, len(columnNames))
	for i, name := range columnNames {
		quoted[i] = quoteIdent(name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columnNames)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(tableName), strings.Join(quoted, ", "), placeholders)
}

// parseCell restores a stored TEXT cell to its typed value. Cells that no
// longer parse under the saved kind come back as strings rather than failing
// the whole load.
func parseCell(kind types.Kind, s string) types.Value {
	switch kind {
	case types.KindInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return types.IntValue(n)
		}
	case types.KindFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return types.FloatValue(f)
		}
	case types.KindBool:
		if b, err := strconv.ParseBool(s); err == nil {
			return types.BoolValue(b)
		}
	case types.KindTime:
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return types.TimeValue(t)
		}
	}
	return types.StringValue(s)
}

// marshalStrings renders a string slice as JSON, mapping nil to [].
func marshalStrings(ss []string) ([]byte, error) {
	if ss == nil {
		ss = []string{}
	}
	return json.Marshal(ss)
}
