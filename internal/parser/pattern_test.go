package parser

import (
	"context"
	"reflect"
	"testing"

	"github.com/datagroom/datagroom/pkg/types"
)

func testCatalog(t *testing.T) types.Catalog {
	t.Helper()
	cat, err := types.NewCatalog([]string{"name", "age", "email", "created_at", "status", "price"})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return cat
}

func parsePattern(t *testing.T, prompt string) []types.Rule {
	t.Helper()
	rules, err := NewPatternStrategy().Parse(context.Background(), prompt, testCatalog(t))
	if err != nil {
		t.Fatalf("pattern parse of %q failed: %v", prompt, err)
	}
	return rules
}

func TestPatternRemoveDuplicates(t *testing.T) {
	rules := parsePattern(t, "Remove duplicate rows")
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d: %v", len(rules), rules)
	}
	dup, ok := rules[0].(*types.RemoveDuplicates)
	if !ok || !dup.Columns.All {
		t.Fatalf("expected remove_duplicates over all columns, got %v", rules[0])
	}

	rules = parsePattern(t, "Delete dups based on email")
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d: %v", len(rules), rules)
	}
	dup = rules[0].(*types.RemoveDuplicates)
	if !reflect.DeepEqual(dup.Columns.Names, []string{"email"}) {
		t.Fatalf("expected duplicates keyed on email, got %v", dup.Columns)
	}
}

func TestPatternFillMissing(t *testing.T) {
	tests := []struct {
		prompt string
		method types.FillMethod
		value  types.Value
		names  []string
	}{
		{"Fill missing values with mean", types.FillMean, types.MissingValue(), nil},
		{"Fill missing values with mean for age", types.FillMean, types.MissingValue(), []string{"age"}},
		{"use the average of missing entries", types.FillMean, types.MissingValue(), nil},
		{"Fill missing values with median", types.FillMedian, types.MissingValue(), nil},
		{"fill empty values using mode", types.FillMode, types.MissingValue(), nil},
		{"Drop rows with missing values", types.FillDrop, types.MissingValue(), nil},
		{"Fill missing values with 42", types.FillValue, types.IntValue(42), nil},
		{"fill null values with 3.5", types.FillValue, types.FloatValue(3.5), nil},
		{"forward fill the gaps", types.FillForward, types.MissingValue(), nil},
		{"bfill the price column", types.FillBackward, types.MissingValue(), []string{"price"}},
	}

	for i, tt := range tests {
		rules := parsePattern(t, tt.prompt)
		var fill *types.FillMissing
		for _, r := range rules {
			if f, ok := r.(*types.FillMissing); ok {
				fill = f
				break
			}
		}
		if fill == nil {
			t.Fatalf("tests[%d] - %q produced no fill rule: %v", i, tt.prompt, rules)
		}
		if fill.Method != tt.method {
			t.Errorf("tests[%d] - method expected=%s, got=%s", i, tt.method, fill.Method)
		}
		if tt.value.Kind != types.KindMissing && !fill.Value.Equal(tt.value) {
			t.Errorf("tests[%d] - value expected=%v, got=%v", i, tt.value, fill.Value)
		}
		if tt.names == nil && !fill.Columns.All {
			t.Errorf("tests[%d] - expected all columns, got %v", i, fill.Columns)
		}
		if tt.names != nil && !reflect.DeepEqual(fill.Columns.Names, tt.names) {
			t.Errorf("tests[%d] - columns expected=%v, got=%v", i, tt.names, fill.Columns.Names)
		}
	}
}

func TestPatternMeanRequiresAdjacentWording(t *testing.T) {
	// The fill family matches filler words between "missing" and the
	// method, but not an interleaved column name.
	rules := parsePattern(t, "Fill missing age values with the mean")
	for _, r := range rules {
		if _, ok := r.(*types.FillMissing); ok {
			t.Fatalf("interleaved column name should not match the fill family: %v", rules)
		}
	}
}

func TestPatternStandardize(t *testing.T) {
	for _, prompt := range []string{"Standardize column names", "normalize col names", "clean names"} {
		rules := parsePattern(t, prompt)
		if len(rules) != 1 {
			t.Fatalf("%q expected 1 rule, got %d: %v", prompt, len(rules), rules)
		}
		if _, ok := rules[0].(*types.StandardizeColumns); !ok {
			t.Fatalf("%q expected standardize_columns, got %v", prompt, rules[0])
		}
	}
}

func TestPatternFilterRows(t *testing.T) {
	tests := []struct {
		prompt    string
		condition string
	}{
		{"Remove rows where age < 18", "age >= 18"},
		{"Keep only rows where age >= 18", "age >= 18"},
		{"Remove rows where status is active", "status != 'active'"},
		{"keep rows when status equals active", "status == 'active'"},
		{"Filter rows where price > 4.5", "price > 4.5"},
		{"drop rows where age == 0", "age != 0"},
	}

	for i, tt := range tests {
		rules := parsePattern(t, tt.prompt)
		var filter *types.FilterRows
		for _, r := range rules {
			if f, ok := r.(*types.FilterRows); ok {
				filter = f
				break
			}
		}
		if filter == nil {
			t.Fatalf("tests[%d] - %q produced no filter rule: %v", i, tt.prompt, rules)
		}
		if filter.Condition != tt.condition {
			t.Errorf("tests[%d] - condition expected=%q, got=%q", i, tt.condition, filter.Condition)
		}
	}
}

func TestPatternFilterUnknownColumn(t *testing.T) {
	rules := parsePattern(t, "Remove rows where salary < 1000")
	for _, r := range rules {
		if _, ok := r.(*types.FilterRows); ok {
			t.Fatalf("unknown column should not produce a filter rule: %v", rules)
		}
	}
}

func TestPatternConvertDtype(t *testing.T) {
	tests := []struct {
		prompt string
		column string
		dtype  types.Dtype
	}{
		{"Convert created_at to datetime", "created_at", types.DtypeDatetime},
		{"convert age to integer", "age", types.DtypeInt},
		{"convert price to float", "price", types.DtypeFloat},
		{"convert status to string", "status", types.DtypeString},
		{"age should be int", "age", types.DtypeInt},
	}

	for i, tt := range tests {
		rules := parsePattern(t, tt.prompt)
		var conv *types.ConvertDtype
		for _, r := range rules {
			if c, ok := r.(*types.ConvertDtype); ok {
				conv = c
				break
			}
		}
		if conv == nil {
			t.Fatalf("tests[%d] - %q produced no convert rule: %v", i, tt.prompt, rules)
		}
		if conv.Column != tt.column || conv.Dtype != tt.dtype {
			t.Errorf("tests[%d] - expected %s->%s, got %s->%s",
				i, tt.column, tt.dtype, conv.Column, conv.Dtype)
		}
	}

	rules := parsePattern(t, "convert salary to int")
	if len(rules) != 0 {
		t.Fatalf("unknown column should produce no rules, got %v", rules)
	}
}

func TestPatternDropColumns(t *testing.T) {
	rules := parsePattern(t, "Drop the email column")
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d: %v", len(rules), rules)
	}
	drop, ok := rules[0].(*types.DropColumns)
	if !ok || !reflect.DeepEqual(drop.Columns, []string{"email"}) {
		t.Fatalf("expected drop_columns [email], got %v", rules[0])
	}

	rules = parsePattern(t, "remove columns: name, status")
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d: %v", len(rules), rules)
	}
	drop = rules[0].(*types.DropColumns)
	if !reflect.DeepEqual(drop.Columns, []string{"name", "status"}) {
		t.Fatalf("expected drop_columns [name status], got %v", drop.Columns)
	}

	rules = parsePattern(t, "drop the salary column")
	if len(rules) != 0 {
		t.Fatalf("unknown column should produce no rules, got %v", rules)
	}
}

func TestPatternMultiAction(t *testing.T) {
	prompt := "Remove duplicates and drop rows with missing values, then standardize column names"
	rules := parsePattern(t, prompt)

	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d: %v", len(rules), rules)
	}
	if _, ok := rules[0].(*types.RemoveDuplicates); !ok {
		t.Errorf("rules[0] expected remove_duplicates, got %v", rules[0])
	}
	fill, ok := rules[1].(*types.FillMissing)
	if !ok || fill.Method != types.FillDrop {
		t.Errorf("rules[1] expected fill_missing drop, got %v", rules[1])
	}
	if _, ok := rules[2].(*types.StandardizeColumns); !ok {
		t.Errorf("rules[2] expected standardize_columns, got %v", rules[2])
	}
}

func TestPatternNoMatches(t *testing.T) {
	for _, prompt := range []string{"", "hello world", "make the data nicer"} {
		rules := parsePattern(t, prompt)
		if len(rules) != 0 {
			t.Errorf("%q expected no rules, got %v", prompt, rules)
		}
	}
}
