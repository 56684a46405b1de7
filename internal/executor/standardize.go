package executor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datagroom/datagroom/pkg/types"
)

var (
	reNonWordSpace = regexp.MustCompile(`[^\w\s]`)
	reWhitespace   = regexp.MustCompile(`\s+`)
	reUnderscores  = regexp.MustCompile(`_+`)
)

// standardizeColumns rewrites every column name to snake_case and reports
// how many names changed. Names that collide after rewriting get a numeric
// suffix; the first occurrence keeps the bare name.
func standardizeColumns(tbl types.Table) (types.Table, string) {
	names := make([]string, tbl.NumCols())
	for i, c := range tbl.Cols {
		names[i] = snakeCase(c.Name)
	}
	names = uniqueNames(names)

	changed := 0
	cols := make([]types.Column, tbl.NumCols())
	for i, c := range tbl.Cols {
		if names[i] != c.Name {
			changed++
		}
		cols[i] = types.Column{Name: names[i], Kind: c.Kind, Cells: c.Cells}
	}
	return types.Table{Cols: cols}, fmt.Sprintf("Standardized %d column names", changed)
}

// snakeCase lowercases a name, strips punctuation, and collapses runs of
// whitespace and underscores into single underscores.
func snakeCase(name string) string {
	n := strings.ToLower(name)
	n = reNonWordSpace.ReplaceAllString(n, "")
	n = reWhitespace.ReplaceAllString(n, "_")
	n = reUnderscores.ReplaceAllString(n, "_")
	return strings.Trim(n, "_")
}

// uniqueNames suffixes repeated names with _1, _2, ... in order of
// appearance. The first occurrence keeps the plain name.
func uniqueNames(names []string) []string {
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
