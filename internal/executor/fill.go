package executor

import (
	"fmt"
	"sort"

	"github.com/datagroom/datagroom/pkg/types"
)

// fillMissing handles the missing-value strategies. Every outcome reports
// how many cells were resolved, counted as the drop in missing cells over
// the target columns.
func fillMissing(tbl types.Table, rule *types.FillMissing) (types.Table, string) {
	target := rule.Columns.Resolve(&tbl)
	before := countMissing(tbl, target)

	out := tbl
	var msg string
	switch rule.Method {
	case types.FillDrop:
		out = dropMissingRows(tbl, target)
		msg = fmt.Sprintf("Dropped rows with missing values in %d columns", len(target))
	case types.FillMean:
		out = fillNumericStat(tbl, target, mean)
		msg = "Filled missing with mean in numeric columns"
	case types.FillMedian:
		out = fillNumericStat(tbl, target, median)
		msg = "Filled missing with median in numeric columns"
	case types.FillMode:
		out = fillMode(tbl, target)
		msg = "Filled missing with mode"
	case types.FillValue:
		if rule.Value.IsMissing() {
			msg = "No fill value provided"
		} else {
			out = fillConstant(tbl, target, rule.Value)
			msg = fmt.Sprintf("Filled missing with value: %s", rule.Value)
		}
	case types.FillForward:
		out = fillDirectional(tbl, target, true)
		msg = "Forward filled missing values"
	case types.FillBackward:
		out = fillDirectional(tbl, target, false)
		msg = "Backward filled missing values"
	default:
		msg = fmt.Sprintf("Unknown fill method: %s", rule.Method)
	}

	filled := before - countMissing(out, target)
	return out, fmt.Sprintf("%s (%d values affected)", msg, filled)
}

// dropMissingRows keeps only rows with no missing cell in any target column.
// An empty target keeps everything.
func dropMissingRows(tbl types.Table, target []string) types.Table {
	if len(target) == 0 {
		return tbl
	}
	idx := make([]int, len(target))
	for i, name := range target {
		idx[i] = tbl.ColumnIndex(name)
	}
	keep := make([]int, 0, tbl.NumRows())
	for row := 0; row < tbl.NumRows(); row++ {
		complete := true
		for _, ci := range idx {
			if tbl.Cols[ci].Cells[row].IsMissing() {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, row)
		}
	}
	if len(keep) == tbl.NumRows() {
		return tbl
	}
	return selectRows(tbl, keep)
}

// fillNumericStat fills missing cells in numeric target columns with a
// statistic of the column's present values. Non-numeric columns are left
// alone, as are columns with no present values. Integer columns holding
// missing cells are promoted to float, since the statistic rarely lands
// on a whole number.
func fillNumericStat(tbl types.Table, target []string, stat func([]float64) float64) types.Table {
	out := tbl
	for _, name := range target {
		ci := out.ColumnIndex(name)
		col := out.Cols[ci]
		if !col.Kind.IsNumeric() {
			continue
		}
		present := make([]float64, 0, len(col.Cells))
		missing := 0
		for _, c := range col.Cells {
			if c.IsMissing() {
				missing++
				continue
			}
			if f, ok := c.AsFloat(); ok {
				present = append(present, f)
			}
		}
		if missing == 0 || len(present) == 0 {
			continue
		}
		fill := types.FloatValue(stat(present))
		cells := make([]types.Value, len(col.Cells))
		copy(cells, col.Cells)
		for i, c := range cells {
			if c.IsMissing() {
				cells[i] = fill
			}
		}
		kind := col.Kind
		if kind == types.KindInt {
			kind = types.KindFloat
		}
		out = replaceColumn(out, ci, types.Column{Name: col.Name, Kind: kind, Cells: cells})
	}
	return out
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// fillMode fills missing cells with the most frequent present value of
// each target column. Ties resolve to the smallest value when the tied
// values are orderable, otherwise to the one seen first.
func fillMode(tbl types.Table, target []string) types.Table {
	out := tbl
	var buf []byte
	for _, name := range target {
		ci := out.ColumnIndex(name)
		col := out.Cols[ci]

		counts := make(map[string]int)
		repr := make(map[string]types.Value)
		order := make([]string, 0, 8)
		missing := 0
		for _, c := range col.Cells {
			if c.IsMissing() {
				missing++
				continue
			}
			buf = appendCellKey(buf[:0], c)
			key := string(buf)
			if _, ok := counts[key]; !ok {
				repr[key] = c
				order = append(order, key)
			}
			counts[key]++
		}
		if missing == 0 || len(order) == 0 {
			continue
		}

		best := order[0]
		for _, key := range order[1:] {
			switch {
			case counts[key] > counts[best]:
				best = key
			case counts[key] == counts[best]:
				if less, ok := repr[key].Less(repr[best]); ok && less {
					best = key
				}
			}
		}

		fill := repr[best]
		cells := make([]types.Value, len(col.Cells))
		copy(cells, col.Cells)
		for i, c := range cells {
			if c.IsMissing() {
				cells[i] = fill
			}
		}
		out = replaceColumn(out, ci, types.Column{Name: col.Name, Kind: col.Kind, Cells: cells})
	}
	return out
}

// fillConstant fills missing cells in every target column with one value.
func fillConstant(tbl types.Table, target []string, v types.Value) types.Table {
	out := tbl
	for _, name := range target {
		ci := out.ColumnIndex(name)
		col := out.Cols[ci]
		missing := 0
		for _, c := range col.Cells {
			if c.IsMissing() {
				missing++
			}
		}
		if missing == 0 {
			continue
		}
		cells := make([]types.Value, len(col.Cells))
		copy(cells, col.Cells)
		for i, c := range cells {
			if c.IsMissing() {
				cells[i] = v
			}
		}
		kind := promotedKind(col.Kind, v.Kind)
		out = replaceColumn(out, ci, types.Column{Name: col.Name, Kind: kind, Cells: cells})
	}
	return out
}

// promotedKind picks the column kind after a constant fill. Mixing int and
// float widens to float; any other mix degrades to string, mirroring how
// mixed CSV columns are typed on load.
func promotedKind(col, fill types.Kind) types.Kind {
	switch {
	case col == fill:
		return col
	case col == types.KindMissing:
		return fill
	case col.IsNumeric() && fill.IsNumeric():
		return types.KindFloat
	default:
		return types.KindString
	}
}

// fillDirectional carries the nearest present value forward (down) or
// backward (up) into missing cells. Runs before the first present value
// (forward) or after the last one (backward) stay missing.
func fillDirectional(tbl types.Table, target []string, forward bool) types.Table {
	out := tbl
	for _, name := range target {
		ci := out.ColumnIndex(name)
		col := out.Cols[ci]
		cells := make([]types.Value, len(col.Cells))
		copy(cells, col.Cells)
		changed := false
		if forward {
			carry := types.MissingValue()
			for i, c := range cells {
				if c.IsMissing() {
					if !carry.IsMissing() {
						cells[i] = carry
						changed = true
					}
					continue
				}
				carry = c
			}
		} else {
			carry := types.MissingValue()
			for i := len(cells) - 1; i >= 0; i-- {
				if cells[i].IsMissing() {
					if !carry.IsMissing() {
						cells[i] = carry
						changed = true
					}
					continue
				}
				carry = cells[i]
			}
		}
		if !changed {
			continue
		}
		out = replaceColumn(out, ci, types.Column{Name: col.Name, Kind: col.Kind, Cells: cells})
	}
	return out
}

func countMissing(tbl types.Table, target []string) int {
	n := 0
	for _, name := range target {
		ci := tbl.ColumnIndex(name)
		if ci < 0 {
			continue
		}
		for _, c := range tbl.Cols[ci].Cells {
			if c.IsMissing() {
				n++
			}
		}
	}
	return n
}
