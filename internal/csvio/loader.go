// Package csvio loads CSV files into tables and writes tables back out.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/pkg/types"
)

// MaxFileSize is the largest CSV file Load accepts, in bytes. The app
// overrides it from configuration at startup.
var MaxFileSize int64 = 100 * 1024 * 1024

// missingTokens are the cell spellings that decode as missing values.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "null": {}, "NULL": {}, "NaN": {}, "nan": {},
}

// fallbackCharmaps are tried in order when the file is not valid UTF-8.
// Single-byte charsets decode any byte sequence, so latin-1 always wins;
// the chain is kept to mirror the documented configuration.
var fallbackCharmaps = []struct {
	name string
	cm   *charmap.Charmap
}{
	{"latin-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
}

// LoadInfo describes how a file was loaded.
type LoadInfo struct {
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
	Encoding  string `json:"encoding"`
	SizeBytes int64  `json:"size_bytes"`
}

// Load reads a CSV file into a table. Column kinds are inferred per column:
// all cells int, all cells float, otherwise string. Empty fields and the
// usual NA spellings load as missing cells.
func Load(path string) (types.Table, LoadInfo, error) {
	var info LoadInfo

	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return types.Table{}, info, derrors.NewLoadError(derrors.CodeMalformedCSV,
			fmt.Sprintf("not a CSV file: %s", path), nil)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return types.Table{}, info, derrors.NewLoadError(derrors.CodeFileNotFound,
			fmt.Sprintf("CSV file not found: %s", path), err)
	}
	if stat.Size() > MaxFileSize {
		return types.Table{}, info, derrors.NewLoadError(derrors.CodeFileTooLarge,
			fmt.Sprintf("file too large: %.2fMB (max: %dMB)", float64(stat.Size())/(1024*1024), MaxFileSize/(1024*1024)), nil)
	}
	info.SizeBytes = stat.Size()

	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Table{}, info, derrors.NewLoadError(derrors.CodeFileNotFound,
			fmt.Sprintf("cannot read %s", path), err)
	}

	return LoadBytes(raw, path)
}

// LoadBytes parses in-memory CSV bytes into a table, applying the same
// encoding detection, header cleanup, and kind inference as Load. The name
// only appears in error messages.
func LoadBytes(raw []byte, name string) (types.Table, LoadInfo, error) {
	var info LoadInfo

	if int64(len(raw)) > MaxFileSize {
		return types.Table{}, info, derrors.NewLoadError(derrors.CodeFileTooLarge,
			fmt.Sprintf("file too large: %.2fMB (max: %dMB)", float64(len(raw))/(1024*1024), MaxFileSize/(1024*1024)), nil)
	}
	info.SizeBytes = int64(len(raw))

	text, encoding, err := decodeBytes(raw)
	if err != nil {
		return types.Table{}, info, err
	}
	info.Encoding = encoding

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return types.Table{}, info, derrors.NewLoadError(derrors.CodeMalformedCSV,
			fmt.Sprintf("cannot parse %s", name), err)
	}
	if len(records) == 0 {
		return types.Table{}, info, derrors.NewLoadError(derrors.CodeMalformedCSV,
			fmt.Sprintf("no header row in %s", name), nil)
	}

	tbl := buildTable(records[0], records[1:])
	info.Rows = tbl.NumRows()
	info.Columns = tbl.NumCols()
	return tbl, info, nil
}

// decodeBytes returns the file text and the name of the encoding that
// produced it.
func decodeBytes(raw []byte) (string, string, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}
	for _, fb := range fallbackCharmaps {
		decoded, err := fb.cm.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		return string(decoded), fb.name, nil
	}
	return "", "", derrors.NewLoadError(derrors.CodeBadEncoding, "undecodable file contents", nil)
}

// buildTable assembles a typed table from raw records. Header names are
// made unique and non-empty; short rows are padded with missing cells and
// long rows truncated to the header width.
func buildTable(header []string, rows [][]string) types.Table {
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("unnamed_%d", i)
		}
		names[i] = h
	}
	names = uniqueHeaderNames(names)

	width := len(names)
	cells := make([][]string, width)
	missing := make([][]bool, width)
	for i := range cells {
		cells[i] = make([]string, len(rows))
		missing[i] = make([]bool, len(rows))
	}
	for r, row := range rows {
		for cIdx := 0; cIdx < width; cIdx++ {
			var field string
			if cIdx < len(row) {
				field = row[cIdx]
			}
			if _, na := missingTokens[field]; na || cIdx >= len(row) {
				missing[cIdx][r] = true
				continue
			}
			cells[cIdx][r] = field
		}
	}

	cols := make([]types.Column, width)
	for i := range cols {
		cols[i] = inferColumn(names[i], cells[i], missing[i])
	}
	return types.Table{Cols: cols}
}

// inferColumn types one column: int when every present cell parses as an
// integer, float when every present cell parses as a number, else string.
func inferColumn(name string, raw []string, missing []bool) types.Column {
	intOK, floatOK, present := true, true, false
	for i, field := range raw {
		if missing[i] {
			continue
		}
		present = true
		if intOK {
			if _, err := strconv.ParseInt(field, 10, 64); err != nil {
				intOK = false
			}
		}
		if floatOK {
			if _, err := strconv.ParseFloat(field, 64); err != nil {
				floatOK = false
			}
		}
		if !intOK && !floatOK {
			break
		}
	}

	out := types.Column{Name: name, Cells: make([]types.Value, len(raw))}
	switch {
	case !present:
		out.Kind = types.KindMissing
	case intOK:
		out.Kind = types.KindInt
	case floatOK:
		out.Kind = types.KindFloat
	default:
		out.Kind = types.KindString
	}

	for i, field := range raw {
		if missing[i] {
			continue
		}
		switch out.Kind {
		case types.KindInt:
			n, _ := strconv.ParseInt(field, 10, 64)
			out.Cells[i] = types.IntValue(n)
		case types.KindFloat:
			f, _ := strconv.ParseFloat(field, 64)
			out.Cells[i] = types.FloatValue(f)
		default:
			out.Cells[i] = types.StringValue(field)
		}
	}
	return out
}

// uniqueHeaderNames suffixes repeated header names with _1, _2, ... in
// order of appearance.
func uniqueHeaderNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		if count, ok := seen[n]; ok {
			seen[n] = count + 1
			out[i] = fmt.Sprintf("%s_%d", n, count+1)
			continue
		}
		seen[n] = 0
		out[i] = n
	}
	return out
}

// Preview returns up to n rows in wire form for API replies.
func Preview(t types.Table, n int) []map[string]types.Value {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	out := make([]map[string]types.Value, 0, n)
	for r := 0; r < n; r++ {
		row := make(map[string]types.Value, t.NumCols())
		for _, c := range t.Cols {
			row[c.Name] = c.Cells[r]
		}
		out = append(out, row)
	}
	return out
}

// Validate reports data-quality issues that do not prevent loading.
func Validate(t types.Table) []string {
	var issues []string
	if t.NumRows() == 0 {
		issues = append(issues, "table is empty (no rows)")
	}
	var empty, unnamed []string
	for _, c := range t.Cols {
		allMissing := true
		for _, cell := range c.Cells {
			if !cell.IsMissing() {
				allMissing = false
				break
			}
		}
		if allMissing && len(c.Cells) > 0 {
			empty = append(empty, c.Name)
		}
		if strings.HasPrefix(c.Name, "unnamed_") {
			unnamed = append(unnamed, c.Name)
		}
	}
	if len(empty) > 0 {
		issues = append(issues, fmt.Sprintf("completely empty columns: %v", empty))
	}
	if len(unnamed) > 0 {
		issues = append(issues, fmt.Sprintf("unnamed columns detected: %v", unnamed))
	}
	return issues
}
