package types

import (
	"fmt"
	"strings"
)

// ColumnStat is a point-in-time summary of one column.
type ColumnStat struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
}

// Catalog is the ordered set of column names the parser matches against.
// It is supplied per invocation and never mutated by the core.
type Catalog struct {
	Columns []string
	Stats   []ColumnStat

	kinds map[string]Kind
}

// NewCatalog builds a catalog from ordered, unique column names.
func NewCatalog(columns []string) (Catalog, error) {
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if name == "" {
			return Catalog{}, fmt.Errorf("types: catalog column name must not be empty")
		}
		if seen[name] {
			return Catalog{}, fmt.Errorf("types: duplicate catalog column %q", name)
		}
		seen[name] = true
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Catalog{Columns: cols}, nil
}

// CatalogOf snapshots a table into a catalog with per-column statistics.
func CatalogOf(t Table) Catalog {
	cols := make([]string, len(t.Cols))
	stats := make([]ColumnStat, len(t.Cols))
	kinds := make(map[string]Kind, len(t.Cols))

	for i, c := range t.Cols {
		cols[i] = c.Name
		kinds[strings.ToLower(c.Name)] = c.Kind

		missing := 0
		distinct := make(map[string]struct{})
		for _, v := range c.Cells {
			if v.IsMissing() {
				missing++
				continue
			}
			distinct[v.String()] = struct{}{}
		}
		stats[i] = ColumnStat{
			Name:    c.Name,
			Kind:    c.Kind.String(),
			Missing: missing,
			Unique:  len(distinct),
		}
	}

	return Catalog{Columns: cols, Stats: stats, kinds: kinds}
}

// Resolve finds the catalog column matching token exactly, ignoring case.
func (c Catalog) Resolve(token string) (string, bool) {
	for _, name := range c.Columns {
		if strings.EqualFold(name, token) {
			return name, true
		}
	}
	return "", false
}

// Contains reports whether the exact column name is present.
func (c Catalog) Contains(name string) bool {
	for _, col := range c.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// MatchSubstring returns, in catalog order and without duplicates, every
// column whose name occurs case-insensitively as a substring of text.
func (c Catalog) MatchSubstring(text string) []string {
	lower := strings.ToLower(text)
	var matches []string
	for _, name := range c.Columns {
		if strings.Contains(lower, strings.ToLower(name)) {
			matches = append(matches, name)
		}
	}
	return matches
}

// NumericColumns returns the columns whose snapshot kind is int or float.
// Catalogs built without a table snapshot report none.
func (c Catalog) NumericColumns() []string {
	if c.kinds == nil {
		return nil
	}
	var numeric []string
	for _, name := range c.Columns {
		if c.kinds[strings.ToLower(name)].IsNumeric() {
			numeric = append(numeric, name)
		}
	}
	return numeric
}
