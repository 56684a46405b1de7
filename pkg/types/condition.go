package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Comparator is a binary comparison operator in a filter condition.
type Comparator int

const (
	CmpEq Comparator = iota
	CmpNe
	CmpGt
	CmpGe
	CmpLt
	CmpLe
)

func (c Comparator) String() string {
	switch c {
	case CmpEq:
		return "=="
	case CmpNe:
		return "!="
	case CmpGt:
		return ">"
	case CmpGe:
		return ">="
	case CmpLt:
		return "<"
	case CmpLe:
		return "<="
	default:
		return "?"
	}
}

// ParseComparator maps an operator token to its Comparator. The word forms
// "is", "equals" and "equal" are aliases for equality.
func ParseComparator(s string) (Comparator, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "==", "=", "is", "equals", "equal":
		return CmpEq, true
	case "!=":
		return CmpNe, true
	case ">":
		return CmpGt, true
	case ">=":
		return CmpGe, true
	case "<":
		return CmpLt, true
	case "<=":
		return CmpLe, true
	default:
		return CmpEq, false
	}
}

// Invert returns the comparator selecting the complement set of rows. A
// request to remove rows matching c keeps the rows matching c.Invert().
func (c Comparator) Invert() Comparator {
	switch c {
	case CmpEq:
		return CmpNe
	case CmpNe:
		return CmpEq
	case CmpGt:
		return CmpLe
	case CmpGe:
		return CmpLt
	case CmpLt:
		return CmpGe
	case CmpLe:
		return CmpGt
	default:
		return c
	}
}

// Condition is a parsed row filter of the form "column op literal".
type Condition struct {
	Column  string
	Cmp     Comparator
	Literal Value
}

// String renders the condition in its canonical textual form. String
// literals are single quoted; everything else renders bare.
func (c Condition) String() string {
	lit := c.Literal.String()
	if c.Literal.Kind == KindString || c.Literal.Kind == KindTime {
		lit = "'" + lit + "'"
	}
	return fmt.Sprintf("%s %s %s", c.Column, c.Cmp, lit)
}

// Eval applies the condition to one cell. Missing cells satisfy only the
// != comparator. Ordering a value against a literal of an incomparable kind
// is an error, which fails the whole filter.
func (c Condition) Eval(v Value) (bool, error) {
	if v.IsMissing() {
		return c.Cmp == CmpNe, nil
	}
	switch c.Cmp {
	case CmpEq:
		return v.Equal(c.Literal), nil
	case CmpNe:
		return !v.Equal(c.Literal), nil
	}
	switch c.Cmp {
	case CmpLt, CmpGe:
		less, ok := v.Less(c.Literal)
		if !ok {
			return false, fmt.Errorf("types: cannot order %s against %s", v.Kind, c.Literal.Kind)
		}
		if c.Cmp == CmpLt {
			return less, nil
		}
		return !less, nil
	default:
		greater, ok := c.Literal.Less(v)
		if !ok {
			return false, fmt.Errorf("types: cannot order %s against %s", v.Kind, c.Literal.Kind)
		}
		if c.Cmp == CmpGt {
			return greater, nil
		}
		return !greater, nil
	}
}

// ParseCondition parses a condition string of the form "column op literal".
// Supported operators are ==, !=, >=, <=, >, < and the equality aliases
// is/equals/equal. Literals may be single or double quoted strings or bare
// tokens; bare tokens coerce to int, then float, then bool, then string.
// The condition is data, never code: nothing here is evaluated.
func ParseCondition(input string) (Condition, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Condition{}, fmt.Errorf("types: empty condition")
	}

	pos := 0
	for pos < len(s) && isIdentChar(s[pos]) {
		pos++
	}
	if pos == 0 {
		return Condition{}, fmt.Errorf("types: condition %q: expected column name", input)
	}
	column := s[:pos]

	for pos < len(s) && s[pos] == ' ' {
		pos++
	}

	opStart := pos
	if pos < len(s) && isSymbolChar(s[pos]) {
		for pos < len(s) && isSymbolChar(s[pos]) {
			pos++
		}
	} else {
		for pos < len(s) && isIdentChar(s[pos]) {
			pos++
		}
	}
	cmp, ok := ParseComparator(s[opStart:pos])
	if !ok {
		return Condition{}, fmt.Errorf("types: condition %q: unsupported operator %q", input, s[opStart:pos])
	}

	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	if pos >= len(s) {
		return Condition{}, fmt.Errorf("types: condition %q: missing literal", input)
	}

	lit, err := parseLiteral(s[pos:])
	if err != nil {
		return Condition{}, fmt.Errorf("types: condition %q: %v", input, err)
	}
	return Condition{Column: column, Cmp: cmp, Literal: lit}, nil
}

func parseLiteral(s string) (Value, error) {
	if s[0] == '\'' || s[0] == '"' {
		quote := s[0]
		end := strings.IndexByte(s[1:], quote)
		if end < 0 {
			return Value{}, fmt.Errorf("unterminated string literal")
		}
		if rest := strings.TrimSpace(s[end+2:]); rest != "" {
			return Value{}, fmt.Errorf("trailing input %q after literal", rest)
		}
		return StringValue(s[1 : end+1]), nil
	}
	token := strings.TrimSpace(s)
	if strings.ContainsAny(token, " \t") {
		return Value{}, fmt.Errorf("literal %q must be a single token or quoted", token)
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return IntValue(n), nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return FloatValue(f), nil
	}
	switch strings.ToLower(token) {
	case "true":
		return BoolValue(true), nil
	case "false":
		return BoolValue(false), nil
	}
	return StringValue(token), nil
}

func isIdentChar(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}

func isSymbolChar(ch byte) bool {
	return ch == '<' || ch == '>' || ch == '=' || ch == '!'
}
