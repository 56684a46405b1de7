package executor

import (
	"fmt"

	"github.com/datagroom/datagroom/pkg/types"
)

// dropColumns removes the named columns. Names that do not resolve are
// ignored; if none resolve the table is unchanged.
func dropColumns(tbl types.Table, rule *types.DropColumns) (types.Table, string) {
	drop := make(map[string]struct{}, len(rule.Columns))
	valid := make([]string, 0, len(rule.Columns))
	for _, name := range rule.Columns {
		if tbl.ColumnIndex(name) < 0 {
			continue
		}
		if _, dup := drop[name]; dup {
			continue
		}
		drop[name] = struct{}{}
		valid = append(valid, name)
	}
	if len(valid) == 0 {
		return tbl, "No valid columns to drop"
	}

	cols := make([]types.Column, 0, tbl.NumCols()-len(valid))
	for _, c := range tbl.Cols {
		if _, gone := drop[c.Name]; gone {
			continue
		}
		cols = append(cols, c)
	}
	return types.Table{Cols: cols}, fmt.Sprintf("Dropped %d columns: %v", len(valid), valid)
}

// renameColumns applies the old-to-new name mapping. Entries whose old
// name is absent are ignored. If two columns end up with the same name,
// later ones get a numeric suffix so names stay unique.
func renameColumns(tbl types.Table, rule *types.RenameColumns) (types.Table, string) {
	if len(rule.Mapping) == 0 {
		return tbl, "No column mapping provided"
	}

	renamed := 0
	names := make([]string, tbl.NumCols())
	for i, c := range tbl.Cols {
		names[i] = c.Name
		if to, ok := rule.Mapping[c.Name]; ok {
			names[i] = to
			renamed++
		}
	}
	if renamed == 0 {
		return tbl, "No valid columns to rename"
	}
	names = uniqueNames(names)

	cols := make([]types.Column, tbl.NumCols())
	for i, c := range tbl.Cols {
		cols[i] = types.Column{Name: names[i], Kind: c.Kind, Cells: c.Cells}
	}
	return types.Table{Cols: cols}, fmt.Sprintf("Renamed %d columns", renamed)
}
