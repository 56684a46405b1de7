package csvio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/datagroom/datagroom/pkg/types"
)

func exportTable() types.Table {
	return types.Table{Cols: []types.Column{
		{Name: "name", Kind: types.KindString, Cells: []types.Value{
			types.StringValue("alice, a"), types.StringValue("bob"),
		}},
		{Name: "age", Kind: types.KindInt, Cells: []types.Value{
			types.IntValue(30), types.MissingValue(),
		}},
		{Name: "joined", Kind: types.KindTime, Cells: []types.Value{
			types.TimeValue(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)), types.MissingValue(),
		}},
	}}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, exportTable(), false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "name,age,joined" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != `"alice, a",30,2024-01-15T10:00:00Z` {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if lines[2] != "bob,," {
		t.Errorf("missing cells should render empty: %q", lines[2])
	}
}

func TestWriteBOM(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, exportTable(), true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Errorf("expected UTF-8 BOM prefix")
	}
}

func TestExportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := Export(exportTable(), path, true); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	tbl, info, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if info.Encoding != "utf-8" {
		t.Errorf("expected utf-8 after BOM strip, got %s", info.Encoding)
	}
	if tbl.NumRows() != 2 || tbl.NumCols() != 3 {
		t.Fatalf("expected 2x3, got %dx%d", tbl.NumRows(), tbl.NumCols())
	}
	if got := tbl.Cols[0].Cells[0].Str; got != "alice, a" {
		t.Errorf("quoted comma value mangled: %q", got)
	}
	if got := tbl.Cols[1].Cells[0].Int; got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
	if !tbl.Cols[1].Cells[1].IsMissing() {
		t.Errorf("empty field should reload as missing")
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
}
