package types

import (
	"encoding/json"
	"fmt"
)

// ruleEnvelope is the wire shape of a single rule: a snake_case action name
// plus an action-specific params object.
type ruleEnvelope struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// MarshalJSON renders the selector as "all" or as an array of column names.
func (s Selector) MarshalJSON() ([]byte, error) {
	if s.All {
		return json.Marshal("all")
	}
	if s.Names == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Names)
}

// UnmarshalJSON accepts "all", a single column name, or an array of names.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "all" {
			*s = AllColumns()
		} else {
			*s = ColumnList(one)
		}
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("types: invalid columns selector %s", data)
	}
	*s = ColumnList(names...)
	return nil
}

func decodeStringList(data json.RawMessage) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		return []string{one}, nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("types: invalid column list %s", data)
	}
	return names, nil
}

// DecodeRule builds the typed rule for an action name and its raw params.
// Unrecognized action names decode to *UnknownRule rather than an error so
// that they surface in the action log instead of aborting the run. Params
// whose shape does not match the action return an error.
func DecodeRule(action string, params json.RawMessage) (Rule, error) {
	kind, ok := ParseActionKind(action)
	if !ok {
		return &UnknownRule{Action: action}, nil
	}
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	switch kind {
	case ActionRemoveDuplicates:
		p := struct {
			Columns Selector `json:"columns"`
		}{Columns: AllColumns()}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("types: %s params: %v", action, err)
		}
		return &RemoveDuplicates{Columns: p.Columns}, nil

	case ActionFillMissing:
		p := struct {
			Columns Selector `json:"columns"`
			Method  string   `json:"method"`
			Value   Value    `json:"value"`
		}{Columns: AllColumns()}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("types: %s params: %v", action, err)
		}
		method := FillMethod(p.Method)
		if p.Method == "" {
			method = FillDrop
		}
		return &FillMissing{Columns: p.Columns, Method: method, Value: p.Value}, nil

	case ActionStandardizeColumns:
		return &StandardizeColumns{}, nil

	case ActionFilterRows:
		var p struct {
			Condition string `json:"condition"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("types: %s params: %v", action, err)
		}
		return &FilterRows{Condition: p.Condition}, nil

	case ActionConvertDtype:
		var p struct {
			Column string `json:"column"`
			Dtype  string `json:"dtype"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("types: %s params: %v", action, err)
		}
		dtype := Dtype("")
		if p.Dtype != "" {
			dtype, _ = NormalizeDtype(p.Dtype)
		}
		return &ConvertDtype{Column: p.Column, Dtype: dtype}, nil

	case ActionDropColumns:
		var p struct {
			Columns json.RawMessage `json:"columns"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("types: %s params: %v", action, err)
		}
		cols, err := decodeStringList(p.Columns)
		if err != nil {
			return nil, fmt.Errorf("types: %s params: %v", action, err)
		}
		return &DropColumns{Columns: cols}, nil

	case ActionRenameColumns:
		var p struct {
			Mapping map[string]string `json:"mapping"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("types: %s params: %v", action, err)
		}
		return &RenameColumns{Mapping: p.Mapping}, nil
	}
	return &UnknownRule{Action: action}, nil
}

// EncodeRule renders a rule back to its wire envelope.
func EncodeRule(r Rule) (json.RawMessage, error) {
	var params any
	action := r.Kind().String()
	switch rule := r.(type) {
	case *RemoveDuplicates:
		params = struct {
			Columns Selector `json:"columns"`
		}{rule.Columns}
	case *FillMissing:
		if rule.Method == FillValue {
			params = struct {
				Columns Selector   `json:"columns"`
				Method  FillMethod `json:"method"`
				Value   Value      `json:"value"`
			}{rule.Columns, rule.Method, rule.Value}
		} else {
			params = struct {
				Columns Selector   `json:"columns"`
				Method  FillMethod `json:"method"`
			}{rule.Columns, rule.Method}
		}
	case *StandardizeColumns:
		params = struct{}{}
	case *FilterRows:
		params = struct {
			Condition string `json:"condition"`
		}{rule.Condition}
	case *ConvertDtype:
		params = struct {
			Column string `json:"column"`
			Dtype  Dtype  `json:"dtype"`
		}{rule.Column, rule.Dtype}
	case *DropColumns:
		params = struct {
			Columns []string `json:"columns"`
		}{rule.Columns}
	case *RenameColumns:
		params = struct {
			Mapping map[string]string `json:"mapping"`
		}{rule.Mapping}
	case *UnknownRule:
		action = rule.Action
		params = struct{}{}
	default:
		return nil, fmt.Errorf("types: cannot encode rule of kind %s", r.Kind())
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ruleEnvelope{Action: action, Params: raw})
}

// MarshalRules renders rules as a JSON array of wire envelopes.
func MarshalRules(rules []Rule) ([]byte, error) {
	out := make([]json.RawMessage, 0, len(rules))
	for _, r := range rules {
		raw, err := EncodeRule(r)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

// UnmarshalRules decodes a JSON array of wire envelopes into typed rules.
// Unknown actions decode to *UnknownRule; malformed params are an error.
func UnmarshalRules(data []byte) ([]Rule, error) {
	var envelopes []ruleEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("types: invalid rules payload: %v", err)
	}
	rules := make([]Rule, 0, len(envelopes))
	for i, env := range envelopes {
		rule, err := DecodeRule(env.Action, env.Params)
		if err != nil {
			return nil, fmt.Errorf("types: rule %d: %v", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
