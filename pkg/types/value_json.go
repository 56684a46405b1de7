package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MarshalJSON renders the value as the natural JSON scalar for its kind.
// Missing values render as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindMissing:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindTime:
		return json.Marshal(v.Time.Format(time.RFC3339))
	default:
		return nil, fmt.Errorf("types: cannot marshal value of kind %s", v.Kind)
	}
}

// UnmarshalJSON decodes a JSON scalar into a value. Numbers without a
// fraction or exponent become ints, all other numbers floats. null decodes
// to a missing value.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = MissingValue()
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("types: invalid value literal %s: %v", trimmed, err)
	}
	switch t := tok.(type) {
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			n, err := t.Int64()
			if err == nil {
				*v = IntValue(n)
				return nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return fmt.Errorf("types: invalid numeric literal %s", s)
		}
		*v = FloatValue(f)
		return nil
	case string:
		*v = StringValue(t)
		return nil
	case bool:
		*v = BoolValue(t)
		return nil
	default:
		return fmt.Errorf("types: value literal %s is not a scalar", trimmed)
	}
}
