package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestZeroValueIsMissing(t *testing.T) {
	var v Value
	if !v.IsMissing() {
		t.Fatalf("zero Value should be missing, got kind %s", v.Kind)
	}
	if v.String() != "" {
		t.Fatalf("missing value should render empty, got %q", v.String())
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{MissingValue(), ""},
		{StringValue("hello"), "hello"},
		{IntValue(42), "42"},
		{IntValue(-7), "-7"},
		{FloatValue(3.5), "3.5"},
		{FloatValue(1200), "1200"},
		{BoolValue(true), "true"},
		{BoolValue(false), "false"},
		{TimeValue(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)), "2024-03-01T12:30:00Z"},
	}

	for i, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("tests[%d] - wrong rendering. expected=%q, got=%q", i, tt.want, got)
		}
	}
}

func TestValueAsFloat(t *testing.T) {
	tests := []struct {
		v    Value
		want float64
		ok   bool
	}{
		{IntValue(42), 42, true},
		{FloatValue(3.5), 3.5, true},
		{BoolValue(true), 1, true},
		{BoolValue(false), 0, true},
		{StringValue(" 7.25 "), 7.25, true},
		{StringValue("abc"), 0, false},
		{StringValue(""), 0, false},
		{MissingValue(), 0, false},
	}

	for i, tt := range tests {
		got, ok := tt.v.AsFloat()
		if ok != tt.ok {
			t.Fatalf("tests[%d] - coercion ok wrong. expected=%v, got=%v", i, tt.ok, ok)
		}
		if ok && got != tt.want {
			t.Errorf("tests[%d] - coerced value wrong. expected=%v, got=%v", i, tt.want, got)
		}
	}
}

func TestValueEqual(t *testing.T) {
	noon := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		a, b Value
		want bool
	}{
		{IntValue(5), FloatValue(5), true},
		{FloatValue(5), IntValue(5), true},
		{IntValue(5), IntValue(6), false},
		{MissingValue(), MissingValue(), true},
		{MissingValue(), IntValue(0), false},
		{StringValue("a"), StringValue("a"), true},
		{StringValue("a"), StringValue("b"), false},
		{StringValue("5"), IntValue(5), false},
		{BoolValue(true), BoolValue(true), true},
		{BoolValue(true), BoolValue(false), false},
		{TimeValue(noon), TimeValue(noon), true},
	}

	for i, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("tests[%d] - Equal(%s, %s) wrong. expected=%v, got=%v",
				i, tt.a, tt.b, tt.want, got)
		}
	}
}

func TestValueLess(t *testing.T) {
	early := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		a, b Value
		less bool
		ok   bool
	}{
		{IntValue(1), FloatValue(1.5), true, true},
		{FloatValue(2), IntValue(1), false, true},
		{StringValue("10"), IntValue(2), false, true},
		{StringValue("apple"), StringValue("banana"), true, true},
		{TimeValue(early), TimeValue(late), true, true},
		{StringValue("abc"), IntValue(2), false, false},
		{MissingValue(), IntValue(1), false, false},
		{TimeValue(early), IntValue(1), false, false},
	}

	for i, tt := range tests {
		less, ok := tt.a.Less(tt.b)
		if ok != tt.ok {
			t.Fatalf("tests[%d] - Less ok wrong. expected=%v, got=%v", i, tt.ok, ok)
		}
		if ok && less != tt.less {
			t.Errorf("tests[%d] - Less result wrong. expected=%v, got=%v", i, tt.less, less)
		}
	}
}

func TestValueUnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{`null`, MissingValue()},
		{`5`, IntValue(5)},
		{`-12`, IntValue(-12)},
		{`5.0`, FloatValue(5)},
		{`5e2`, FloatValue(500)},
		{`"hi"`, StringValue("hi")},
		{`true`, BoolValue(true)},
	}

	for i, tt := range tests {
		var got Value
		if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
			t.Fatalf("tests[%d] - unmarshal %s failed: %v", i, tt.input, err)
		}
		if !got.Equal(tt.want) || got.Kind != tt.want.Kind {
			t.Errorf("tests[%d] - decoded %s wrong. expected=%v(%s), got=%v(%s)",
				i, tt.input, tt.want, tt.want.Kind, got, got.Kind)
		}
	}

	var v Value
	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Fatalf("expected error decoding array into Value")
	}
}

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{MissingValue(), `null`},
		{IntValue(7), `7`},
		{FloatValue(2.5), `2.5`},
		{StringValue("x"), `"x"`},
		{BoolValue(false), `false`},
		{TimeValue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), `"2024-03-01T00:00:00Z"`},
	}

	for i, tt := range tests {
		got, err := json.Marshal(tt.v)
		if err != nil {
			t.Fatalf("tests[%d] - marshal failed: %v", i, err)
		}
		if string(got) != tt.want {
			t.Errorf("tests[%d] - encoded wrong. expected=%s, got=%s", i, tt.want, got)
		}
	}
}
