// Package store persists cleaned datasets in SQLite. Each saved dataset
// gets its own physical data table plus registry rows recording what was
// cleaned and how.
package store

// Schema contains the SQL definitions for the dataset registry (datagroom.db).
// The registry is the source of truth for which datasets exist; the per-dataset
// data tables are created and dropped alongside their registry rows.

// CreateDatasetsTableSQL creates the dataset registry table. One row per
// saved dataset, pointing at the physical table that holds its rows.
const CreateDatasetsTableSQL = `
CREATE TABLE IF NOT EXISTS cleaned_datasets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    table_name TEXT UNIQUE NOT NULL,
    original_file TEXT NOT NULL,
    prompt TEXT NOT NULL,
    row_count INTEGER NOT NULL,
    column_count INTEGER NOT NULL,
    columns_json TEXT NOT NULL,
    created_at INTEGER NOT NULL
)`

// CreateMetadataTableSQL creates the cleaning metadata table. One row per
// saved dataset describing the run that produced it: the typed rules, the
// action log, which parser strategy was used, and timing.
const CreateMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS cleaning_metadata (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_id INTEGER NOT NULL,
    run_id TEXT NOT NULL,
    rules_json TEXT NOT NULL,
    actions_json TEXT NOT NULL,
    warnings_json TEXT NOT NULL,
    parser_used TEXT NOT NULL,
    rows_before INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (dataset_id) REFERENCES cleaned_datasets(id)
)`

// CreateRegistryIndexesSQL creates indexes for the registry access paths:
// newest-first listings, TTL-based expiry, and metadata lookup by dataset.
var CreateRegistryIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_datasets_created ON cleaned_datasets(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_metadata_dataset ON cleaning_metadata(dataset_id)`,
}

// AllSchemaSQL returns all SQL statements needed to initialize the registry.
func AllSchemaSQL() []string {
	statements := []string{
		CreateDatasetsTableSQL,
		CreateMetadataTableSQL,
	}
	statements = append(statements, CreateRegistryIndexesSQL...)
	return statements
}
