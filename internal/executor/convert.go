package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/datagroom/datagroom/pkg/types"
)

// timeLayouts are tried in order when parsing string cells as datetimes.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// truthyTokens are the lowercase renderings that convert to true.
var truthyTokens = map[string]struct{}{
	"true": {}, "yes": {}, "1": {}, "y": {}, "t": {},
}

// convertDtype retypes one column. Cells that do not convert become zero
// (int), missing (float, datetime), or false (bool); conversion never
// fails a row.
func convertDtype(tbl types.Table, rule *types.ConvertDtype) (types.Table, string) {
	ci := tbl.ColumnIndex(rule.Column)
	if ci < 0 {
		return tbl, fmt.Sprintf("Column '%s' not found", rule.Column)
	}
	if rule.Dtype == "" {
		return tbl, "No target dtype specified"
	}

	col := tbl.Cols[ci]
	from := col.Kind.String()

	var cells []types.Value
	var kind types.Kind
	switch rule.Dtype {
	case types.DtypeInt:
		cells, kind = toInts(col.Cells), types.KindInt
	case types.DtypeFloat:
		cells, kind = toFloats(col.Cells), types.KindFloat
	case types.DtypeString:
		cells, kind = toStrings(col.Cells), types.KindString
	case types.DtypeDatetime:
		cells, kind = toTimes(col.Cells), types.KindTime
	case types.DtypeBool:
		cells, kind = toBools(col.Cells), types.KindBool
	default:
		return tbl, fmt.Sprintf("Unknown dtype: %s", rule.Dtype)
	}

	out := replaceColumn(tbl, ci, types.Column{Name: col.Name, Kind: kind, Cells: cells})
	return out, fmt.Sprintf("Converted '%s' from %s to %s", rule.Column, from, rule.Dtype)
}

// toInts coerces cells to integers, truncating toward zero. Cells that do
// not coerce, including missing ones, become 0.
func toInts(cells []types.Value) []types.Value {
	out := make([]types.Value, len(cells))
	for i, c := range cells {
		if f, ok := c.AsFloat(); ok {
			out[i] = types.IntValue(int64(f))
			continue
		}
		out[i] = types.IntValue(0)
	}
	return out
}

// toFloats coerces cells to floats. Cells that do not coerce stay missing.
func toFloats(cells []types.Value) []types.Value {
	out := make([]types.Value, len(cells))
	for i, c := range cells {
		if f, ok := c.AsFloat(); ok {
			out[i] = types.FloatValue(f)
			continue
		}
		out[i] = types.MissingValue()
	}
	return out
}

// toStrings renders cells as text. Missing cells stay missing rather than
// becoming a literal placeholder string.
func toStrings(cells []types.Value) []types.Value {
	out := make([]types.Value, len(cells))
	for i, c := range cells {
		if c.IsMissing() {
			out[i] = c
			continue
		}
		out[i] = types.StringValue(c.String())
	}
	return out
}

// toTimes parses string cells against the known layouts. Cells already
// holding a datetime pass through; everything unparseable becomes missing.
func toTimes(cells []types.Value) []types.Value {
	out := make([]types.Value, len(cells))
	for i, c := range cells {
		switch c.Kind {
		case types.KindTime:
			out[i] = c
		case types.KindString:
			out[i] = parseTime(strings.TrimSpace(c.Str))
		default:
			out[i] = types.MissingValue()
		}
	}
	return out
}

func parseTime(s string) types.Value {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.TimeValue(t)
		}
	}
	return types.MissingValue()
}

// toBools maps the lowercase text rendering of each cell against the
// truthy token set. Everything else, missing cells included, becomes
// false.
func toBools(cells []types.Value) []types.Value {
	out := make([]types.Value, len(cells))
	for i, c := range cells {
		token := strings.ToLower(c.String())
		_, truthy := truthyTokens[token]
		out[i] = types.BoolValue(truthy)
	}
	return out
}
