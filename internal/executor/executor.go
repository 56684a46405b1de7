// Package executor applies ordered cleaning rules to in-memory tables.
//
// Rules are applied in sequence and in isolation: a rule that fails leaves
// the table exactly as the previous rule left it and contributes an error
// entry to the action log instead of aborting the run. The caller's table
// is never modified.
package executor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/datagroom/datagroom/pkg/types"
)

// Result carries the cleaned table and one log entry per applied rule.
type Result struct {
	Table   types.Table
	Actions []string
}

// Executor applies cleaning rules to tables.
type Executor struct {
	logger *zap.Logger
}

// New creates an executor. A nil logger disables logging.
func New(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger}
}

// Execute applies rules in order and returns the cleaned table together
// with a human-readable action log. Every rule produces exactly one log
// entry, including rules that fail or carry an unrecognized action.
func (e *Executor) Execute(tbl types.Table, rules []types.Rule) Result {
	out := tbl.Clone()
	actions := make([]string, 0, len(rules))
	for _, rule := range rules {
		next, msg := e.applyRule(out, rule)
		out = next
		actions = append(actions, msg)
		e.logger.Debug("applied rule",
			zap.String("action", rule.Kind().String()),
			zap.String("result", msg),
			zap.Int("rows", out.NumRows()),
		)
	}
	return Result{Table: out, Actions: actions}
}

// applyRule dispatches a single rule. A panic inside a transform is
// converted into an error log entry and the pre-rule table is kept.
func (e *Executor) applyRule(tbl types.Table, rule types.Rule) (out types.Table, msg string) {
	defer func() {
		if r := recover(); r != nil {
			out = tbl
			msg = fmt.Sprintf("Error in %s: %v", rule.Kind(), r)
			e.logger.Warn("rule panicked",
				zap.String("action", rule.Kind().String()),
				zap.Any("panic", r),
			)
		}
	}()

	switch r := rule.(type) {
	case *types.RemoveDuplicates:
		return removeDuplicates(tbl, r)
	case *types.FillMissing:
		return fillMissing(tbl, r)
	case *types.StandardizeColumns:
		return standardizeColumns(tbl)
	case *types.FilterRows:
		return filterRows(tbl, r)
	case *types.ConvertDtype:
		return convertDtype(tbl, r)
	case *types.DropColumns:
		return dropColumns(tbl, r)
	case *types.RenameColumns:
		return renameColumns(tbl, r)
	case *types.UnknownRule:
		return tbl, fmt.Sprintf("Unknown action: %s", r.Action)
	default:
		return tbl, fmt.Sprintf("Unknown action: %s", rule.Kind())
	}
}

// selectRows builds a table holding the given rows in order. Cell slices
// are copied so the result never aliases the input.
func selectRows(tbl types.Table, keep []int) types.Table {
	cols := make([]types.Column, len(tbl.Cols))
	for i, c := range tbl.Cols {
		cells := make([]types.Value, len(keep))
		for j, row := range keep {
			cells[j] = c.Cells[row]
		}
		cols[i] = types.Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return types.Table{Cols: cols}
}

// replaceColumn returns a table with column i swapped out. Other columns
// are shared with the input, which is safe because transforms never write
// cells in place.
func replaceColumn(tbl types.Table, i int, col types.Column) types.Table {
	cols := make([]types.Column, len(tbl.Cols))
	copy(cols, tbl.Cols)
	cols[i] = col
	return types.Table{Cols: cols}
}
