package types

import (
	"reflect"
	"testing"
)

func TestUnmarshalRulesCanonical(t *testing.T) {
	payload := `[
		{"action": "remove_duplicates", "params": {"columns": "all"}},
		{"action": "fill_missing", "params": {"columns": ["age"], "method": "mean"}},
		{"action": "filter_rows", "params": {"condition": "age >= 18"}}
	]`

	rules, err := UnmarshalRules([]byte(payload))
	if err != nil {
		t.Fatalf("UnmarshalRules failed: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}

	dup, ok := rules[0].(*RemoveDuplicates)
	if !ok || !dup.Columns.All {
		t.Fatalf("rules[0] wrong: %v", rules[0])
	}

	fill, ok := rules[1].(*FillMissing)
	if !ok {
		t.Fatalf("rules[1] wrong type: %T", rules[1])
	}
	if fill.Method != FillMean || !reflect.DeepEqual(fill.Columns.Names, []string{"age"}) {
		t.Fatalf("rules[1] wrong: %v", fill)
	}

	filter, ok := rules[2].(*FilterRows)
	if !ok || filter.Condition != "age >= 18" {
		t.Fatalf("rules[2] wrong: %v", rules[2])
	}
}

func TestDecodeRuleDefaults(t *testing.T) {
	r, err := DecodeRule("remove_duplicates", nil)
	if err != nil {
		t.Fatalf("DecodeRule failed: %v", err)
	}
	if dup := r.(*RemoveDuplicates); !dup.Columns.All {
		t.Fatalf("remove_duplicates without params should select all columns: %v", dup)
	}

	r, err = DecodeRule("fill_missing", []byte(`{"columns": "age"}`))
	if err != nil {
		t.Fatalf("DecodeRule failed: %v", err)
	}
	fill := r.(*FillMissing)
	if fill.Method != FillDrop {
		t.Fatalf("missing method should default to drop, got %s", fill.Method)
	}
	if !reflect.DeepEqual(fill.Columns.Names, []string{"age"}) {
		t.Fatalf("bare string columns should decode to a single-name list: %v", fill.Columns)
	}

	r, err = DecodeRule("drop_columns", []byte(`{"columns": "notes"}`))
	if err != nil {
		t.Fatalf("DecodeRule failed: %v", err)
	}
	if drop := r.(*DropColumns); !reflect.DeepEqual(drop.Columns, []string{"notes"}) {
		t.Fatalf("drop_columns bare string wrong: %v", drop.Columns)
	}
}

func TestDecodeRuleUnknownAction(t *testing.T) {
	r, err := DecodeRule("normalize_rows", []byte(`{"foo": 1}`))
	if err != nil {
		t.Fatalf("unknown action should not error: %v", err)
	}
	unknown, ok := r.(*UnknownRule)
	if !ok || unknown.Action != "normalize_rows" {
		t.Fatalf("expected UnknownRule(normalize_rows), got %v", r)
	}
}

func TestDecodeRuleFillValue(t *testing.T) {
	tests := []struct {
		params string
		want   Value
	}{
		{`{"method": "value", "value": 5}`, IntValue(5)},
		{`{"method": "value", "value": 5.5}`, FloatValue(5.5)},
		{`{"method": "value", "value": "unknown"}`, StringValue("unknown")},
		{`{"method": "value", "value": true}`, BoolValue(true)},
		{`{"method": "value"}`, MissingValue()},
	}

	for i, tt := range tests {
		r, err := DecodeRule("fill_missing", []byte(tt.params))
		if err != nil {
			t.Fatalf("tests[%d] - DecodeRule failed: %v", i, err)
		}
		fill := r.(*FillMissing)
		if fill.Value.Kind != tt.want.Kind || !fill.Value.Equal(tt.want) {
			t.Errorf("tests[%d] - fill value wrong. expected=%v(%s), got=%v(%s)",
				i, tt.want, tt.want.Kind, fill.Value, fill.Value.Kind)
		}
	}
}

func TestDecodeRuleDtypeSynonyms(t *testing.T) {
	tests := []struct {
		dtype string
		want  Dtype
	}{
		{"integer", DtypeInt},
		{"number", DtypeFloat},
		{"decimal", DtypeFloat},
		{"text", DtypeString},
		{"date", DtypeDatetime},
		{"boolean", DtypeBool},
		{"complex", Dtype("complex")},
	}

	for i, tt := range tests {
		r, err := DecodeRule("convert_dtype", []byte(`{"column": "age", "dtype": "`+tt.dtype+`"}`))
		if err != nil {
			t.Fatalf("tests[%d] - DecodeRule failed: %v", i, err)
		}
		conv := r.(*ConvertDtype)
		if conv.Dtype != tt.want {
			t.Errorf("tests[%d] - dtype %q expected=%q, got=%q", i, tt.dtype, tt.want, conv.Dtype)
		}
	}
}

func TestDecodeRuleBadParams(t *testing.T) {
	if _, err := DecodeRule("filter_rows", []byte(`{"condition": 5}`)); err == nil {
		t.Fatalf("expected error for non-string condition")
	}
	if _, err := DecodeRule("rename_columns", []byte(`{"mapping": ["a"]}`)); err == nil {
		t.Fatalf("expected error for non-object mapping")
	}
	if _, err := DecodeRule("fill_missing", []byte(`{"columns": 7}`)); err == nil {
		t.Fatalf("expected error for numeric columns selector")
	}
}

func TestRulesRoundTrip(t *testing.T) {
	rules := []Rule{
		&RemoveDuplicates{Columns: AllColumns()},
		&FillMissing{Columns: ColumnList("age"), Method: FillValue, Value: IntValue(0)},
		&FillMissing{Columns: AllColumns(), Method: FillForward},
		&StandardizeColumns{},
		&FilterRows{Condition: "age >= 18"},
		&ConvertDtype{Column: "age", Dtype: DtypeInt},
		&DropColumns{Columns: []string{"notes", "tmp"}},
		&RenameColumns{Mapping: map[string]string{"fname": "first_name"}},
		&UnknownRule{Action: "explode_rows"},
	}

	data, err := MarshalRules(rules)
	if err != nil {
		t.Fatalf("MarshalRules failed: %v", err)
	}
	decoded, err := UnmarshalRules(data)
	if err != nil {
		t.Fatalf("UnmarshalRules failed: %v", err)
	}
	if !reflect.DeepEqual(rules, decoded) {
		t.Fatalf("round trip mismatch:\n in: %v\nout: %v", rules, decoded)
	}
}

func TestSelectorJSON(t *testing.T) {
	all, err := AllColumns().MarshalJSON()
	if err != nil || string(all) != `"all"` {
		t.Fatalf(`AllColumns should marshal to "all", got %s (%v)`, all, err)
	}

	list, err := ColumnList("a", "b").MarshalJSON()
	if err != nil || string(list) != `["a","b"]` {
		t.Fatalf(`ColumnList should marshal to ["a","b"], got %s (%v)`, list, err)
	}

	var s Selector
	if err := s.UnmarshalJSON([]byte(`"all"`)); err != nil || !s.All {
		t.Fatalf("unmarshal all wrong: %v %v", s, err)
	}
	if err := s.UnmarshalJSON([]byte(`"age"`)); err != nil || !reflect.DeepEqual(s.Names, []string{"age"}) {
		t.Fatalf("unmarshal bare string wrong: %v %v", s, err)
	}
}

func TestActionKindNames(t *testing.T) {
	kinds := []ActionKind{
		ActionRemoveDuplicates, ActionFillMissing, ActionStandardizeColumns,
		ActionFilterRows, ActionConvertDtype, ActionDropColumns, ActionRenameColumns,
	}
	for _, k := range kinds {
		parsed, ok := ParseActionKind(k.String())
		if !ok || parsed != k {
			t.Errorf("ParseActionKind(%q) expected=%v, got=%v ok=%v", k.String(), k, parsed, ok)
		}
	}
	if _, ok := ParseActionKind("unknown"); ok {
		t.Fatalf("unknown should not parse to a kind")
	}
}
