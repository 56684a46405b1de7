package types

import (
	"reflect"
	"testing"
)

func TestNewCatalogValidation(t *testing.T) {
	if _, err := NewCatalog([]string{"a", "a"}); err == nil {
		t.Fatalf("expected duplicate column error")
	}
	if _, err := NewCatalog([]string{""}); err == nil {
		t.Fatalf("expected empty column error")
	}
	if _, err := NewCatalog([]string{"age", "city"}); err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
}

func TestCatalogResolve(t *testing.T) {
	cat, err := NewCatalog([]string{"Age", "City", "first_name"})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"age", "Age", true},
		{"AGE", "Age", true},
		{"first_name", "first_name", true},
		{"salary", "", false},
	}

	for i, tt := range tests {
		got, ok := cat.Resolve(tt.token)
		if ok != tt.ok || got != tt.want {
			t.Errorf("tests[%d] - Resolve(%q) expected=(%q,%v), got=(%q,%v)",
				i, tt.token, tt.want, tt.ok, got, ok)
		}
	}
}

func TestCatalogMatchSubstring(t *testing.T) {
	cat, err := NewCatalog([]string{"age", "city", "name"})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	got := cat.MatchSubstring("Fill missing Age and city values")
	want := []string{"age", "city"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MatchSubstring expected=%v, got=%v", want, got)
	}

	if got := cat.MatchSubstring("drop the id column"); got != nil {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestCatalogOf(t *testing.T) {
	tbl, err := NewTable([]Column{
		{Name: "age", Kind: KindInt, Cells: []Value{IntValue(30), MissingValue(), IntValue(30)}},
		{Name: "city", Kind: KindString, Cells: []Value{StringValue("NY"), StringValue("LA"), StringValue("NY")}},
		{Name: "score", Kind: KindFloat, Cells: []Value{FloatValue(1.5), FloatValue(2.5), MissingValue()}},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	cat := CatalogOf(tbl)
	if !reflect.DeepEqual(cat.Columns, []string{"age", "city", "score"}) {
		t.Fatalf("wrong columns: %v", cat.Columns)
	}

	wantStats := []ColumnStat{
		{Name: "age", Kind: "int", Missing: 1, Unique: 1},
		{Name: "city", Kind: "str", Missing: 0, Unique: 2},
		{Name: "score", Kind: "float", Missing: 1, Unique: 2},
	}
	if !reflect.DeepEqual(cat.Stats, wantStats) {
		t.Fatalf("wrong stats: %+v", cat.Stats)
	}

	numeric := cat.NumericColumns()
	if !reflect.DeepEqual(numeric, []string{"age", "score"}) {
		t.Fatalf("wrong numeric columns: %v", numeric)
	}
}

func TestCatalogWithoutSnapshotHasNoNumericColumns(t *testing.T) {
	cat, err := NewCatalog([]string{"age", "score"})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if got := cat.NumericColumns(); got != nil {
		t.Fatalf("expected nil numeric columns, got %v", got)
	}
}
