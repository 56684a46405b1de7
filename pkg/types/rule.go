package types

import (
	"fmt"
	"sort"
	"strings"
)

// ActionKind identifies a cleaning action. The set is closed: every kind
// corresponds to exactly one concrete Rule type, and the executor matches
// rules with an exhaustive type switch.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionRemoveDuplicates
	ActionFillMissing
	ActionStandardizeColumns
	ActionFilterRows
	ActionConvertDtype
	ActionDropColumns
	ActionRenameColumns
)

// String returns the wire name of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionRemoveDuplicates:
		return "remove_duplicates"
	case ActionFillMissing:
		return "fill_missing"
	case ActionStandardizeColumns:
		return "standardize_columns"
	case ActionFilterRows:
		return "filter_rows"
	case ActionConvertDtype:
		return "convert_dtype"
	case ActionDropColumns:
		return "drop_columns"
	case ActionRenameColumns:
		return "rename_columns"
	default:
		return "unknown"
	}
}

// ParseActionKind maps a wire name to its ActionKind. Unrecognized names
// map to ActionUnknown with ok=false.
func ParseActionKind(s string) (ActionKind, bool) {
	switch s {
	case "remove_duplicates":
		return ActionRemoveDuplicates, true
	case "fill_missing":
		return ActionFillMissing, true
	case "standardize_columns":
		return ActionStandardizeColumns, true
	case "filter_rows":
		return ActionFilterRows, true
	case "convert_dtype":
		return ActionConvertDtype, true
	case "drop_columns":
		return ActionDropColumns, true
	case "rename_columns":
		return ActionRenameColumns, true
	default:
		return ActionUnknown, false
	}
}

// FillMethod selects how fill_missing replaces missing cells. Values not in
// the known set pass through to the executor, which logs them as unknown.
type FillMethod string

const (
	FillMean     FillMethod = "mean"
	FillMedian   FillMethod = "median"
	FillMode     FillMethod = "mode"
	FillDrop     FillMethod = "drop"
	FillValue    FillMethod = "value"
	FillForward  FillMethod = "ffill"
	FillBackward FillMethod = "bfill"
)

// Known reports whether the method is one of the supported fill methods.
func (m FillMethod) Known() bool {
	switch m {
	case FillMean, FillMedian, FillMode, FillDrop, FillValue, FillForward, FillBackward:
		return true
	}
	return false
}

// Dtype names a target column type for convert_dtype. Synonyms accepted on
// the wire are canonicalized by NormalizeDtype; anything else passes through
// so the executor can report it.
type Dtype string

const (
	DtypeInt      Dtype = "int"
	DtypeFloat    Dtype = "float"
	DtypeString   Dtype = "str"
	DtypeDatetime Dtype = "datetime"
	DtypeBool     Dtype = "bool"
)

// NormalizeDtype canonicalizes dtype synonyms. Unrecognized names are
// returned unchanged with ok=false.
func NormalizeDtype(s string) (Dtype, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return DtypeInt, true
	case "float", "decimal", "number":
		return DtypeFloat, true
	case "str", "string", "text":
		return DtypeString, true
	case "date", "datetime":
		return DtypeDatetime, true
	case "bool", "boolean":
		return DtypeBool, true
	default:
		return Dtype(s), false
	}
}

// TargetKind returns the column Kind a conversion to this dtype produces.
func (d Dtype) TargetKind() (Kind, bool) {
	switch d {
	case DtypeInt:
		return KindInt, true
	case DtypeFloat:
		return KindFloat, true
	case DtypeString:
		return KindString, true
	case DtypeDatetime:
		return KindTime, true
	case DtypeBool:
		return KindBool, true
	default:
		return KindMissing, false
	}
}

// Selector names the columns an action applies to: either every column or
// an explicit list. Unknown names are resolved (and silently dropped) by the
// executor against the table at hand.
type Selector struct {
	All   bool
	Names []string
}

// AllColumns selects every column of the target table.
func AllColumns() Selector { return Selector{All: true} }

// ColumnList selects the named columns.
func ColumnList(names ...string) Selector { return Selector{Names: names} }

// Resolve returns the subset of the selector's columns present in the table,
// in table order for All and in selector order otherwise.
func (s Selector) Resolve(t *Table) []string {
	if s.All {
		return t.ColumnNames()
	}
	out := make([]string, 0, len(s.Names))
	for _, name := range s.Names {
		if t.ColumnIndex(name) >= 0 {
			out = append(out, name)
		}
	}
	return out
}

func (s Selector) String() string {
	if s.All {
		return "all"
	}
	return "[" + strings.Join(s.Names, ", ") + "]"
}

// Rule is a single typed cleaning action. The interface is sealed: only the
// concrete rule types in this package implement it.
type Rule interface {
	ruleNode()
	Kind() ActionKind
	String() string
}

// RemoveDuplicates drops rows whose values repeat an earlier row over the
// selected columns.
type RemoveDuplicates struct {
	Columns Selector
}

func (r *RemoveDuplicates) ruleNode()        {}
func (r *RemoveDuplicates) Kind() ActionKind { return ActionRemoveDuplicates }
func (r *RemoveDuplicates) String() string {
	return fmt.Sprintf("remove_duplicates(columns=%s)", r.Columns)
}

// FillMissing replaces missing cells in the selected columns using Method.
// Value is consulted only when Method is FillValue.
type FillMissing struct {
	Columns Selector
	Method  FillMethod
	Value   Value
}

func (r *FillMissing) ruleNode()        {}
func (r *FillMissing) Kind() ActionKind { return ActionFillMissing }
func (r *FillMissing) String() string {
	if r.Method == FillValue {
		return fmt.Sprintf("fill_missing(columns=%s, method=%s, value=%s)", r.Columns, r.Method, r.Value)
	}
	return fmt.Sprintf("fill_missing(columns=%s, method=%s)", r.Columns, r.Method)
}

// StandardizeColumns rewrites every column name to snake_case.
type StandardizeColumns struct{}

func (r *StandardizeColumns) ruleNode()        {}
func (r *StandardizeColumns) Kind() ActionKind { return ActionStandardizeColumns }
func (r *StandardizeColumns) String() string   { return "standardize_columns()" }

// FilterRows keeps only the rows satisfying Condition. The condition string
// is parsed by ParseCondition; it is never evaluated as code.
type FilterRows struct {
	Condition string
}

func (r *FilterRows) ruleNode()        {}
func (r *FilterRows) Kind() ActionKind { return ActionFilterRows }
func (r *FilterRows) String() string {
	return fmt.Sprintf("filter_rows(condition=%q)", r.Condition)
}

// ConvertDtype coerces one column to the target dtype.
type ConvertDtype struct {
	Column string
	Dtype  Dtype
}

func (r *ConvertDtype) ruleNode()        {}
func (r *ConvertDtype) Kind() ActionKind { return ActionConvertDtype }
func (r *ConvertDtype) String() string {
	return fmt.Sprintf("convert_dtype(column=%s, dtype=%s)", r.Column, r.Dtype)
}

// DropColumns removes the named columns.
type DropColumns struct {
	Columns []string
}

func (r *DropColumns) ruleNode()        {}
func (r *DropColumns) Kind() ActionKind { return ActionDropColumns }
func (r *DropColumns) String() string {
	return fmt.Sprintf("drop_columns(columns=[%s])", strings.Join(r.Columns, ", "))
}

// RenameColumns renames columns according to Mapping (old name to new name).
type RenameColumns struct {
	Mapping map[string]string
}

func (r *RenameColumns) ruleNode()        {}
func (r *RenameColumns) Kind() ActionKind { return ActionRenameColumns }
func (r *RenameColumns) String() string {
	keys := make([]string, 0, len(r.Mapping))
	for k := range r.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"->"+r.Mapping[k])
	}
	return fmt.Sprintf("rename_columns(%s)", strings.Join(pairs, ", "))
}

// UnknownRule carries an action name the decoder did not recognize. The
// executor records it in the action log and leaves the table untouched.
type UnknownRule struct {
	Action string
}

func (r *UnknownRule) ruleNode()        {}
func (r *UnknownRule) Kind() ActionKind { return ActionUnknown }
func (r *UnknownRule) String() string   { return fmt.Sprintf("unknown(%s)", r.Action) }
