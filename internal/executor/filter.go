package executor

import (
	"fmt"

	"github.com/datagroom/datagroom/pkg/types"
)

// filterRows keeps the rows satisfying the rule's condition. The condition
// is parsed with the constrained comparison grammar; anything it cannot
// express, and any comparison against an unorderable cell, fails the whole
// rule rather than filtering on a partial result.
func filterRows(tbl types.Table, rule *types.FilterRows) (types.Table, string) {
	if rule.Condition == "" {
		return tbl, "No filter condition provided"
	}

	cond, err := types.ParseCondition(rule.Condition)
	if err != nil {
		return tbl, fmt.Sprintf("Could not apply filter: %s", rule.Condition)
	}
	ci := tbl.ColumnIndex(cond.Column)
	if ci < 0 {
		return tbl, fmt.Sprintf("Could not apply filter: %s", rule.Condition)
	}

	keep := make([]int, 0, tbl.NumRows())
	for row := 0; row < tbl.NumRows(); row++ {
		ok, err := cond.Eval(tbl.Cols[ci].Cells[row])
		if err != nil {
			return tbl, fmt.Sprintf("Could not apply filter: %s", rule.Condition)
		}
		if ok {
			keep = append(keep, row)
		}
	}

	removed := tbl.NumRows() - len(keep)
	out := tbl
	if removed > 0 {
		out = selectRows(tbl, keep)
	}
	return out, fmt.Sprintf("Filtered rows with condition '%s' (removed %d rows)", rule.Condition, removed)
}
