package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/datagroom/datagroom/pkg/types"
)

// PatternStrategy matches prompts against ordered regular expression
// families, one per action. It recognizes at most one rule per family and
// never fails: a prompt that matches nothing yields no rules.
type PatternStrategy struct{}

// NewPatternStrategy returns the regex fallback strategy.
func NewPatternStrategy() *PatternStrategy {
	return &PatternStrategy{}
}

func (p *PatternStrategy) Name() string { return "pattern" }

var reDuplicates = regexp.MustCompile(`(remove|delete|drop|eliminate)\s*(duplicate|dup)s?`)

type fillPattern struct {
	re     *regexp.Regexp
	method types.FillMethod
}

var fillPatterns = []fillPattern{
	{regexp.MustCompile(`fill\s*(missing|null|nan|empty)\s*(values?)?\s*(with|using)?\s*(mean|average)`), types.FillMean},
	{regexp.MustCompile(`(mean|average)\s*(of|for)?\s*(missing|null)`), types.FillMean},
	{regexp.MustCompile(`fill\s*(missing|null|nan|empty)\s*(values?)?\s*(with|using)?\s*median`), types.FillMedian},
	{regexp.MustCompile(`median\s*(of|for)?\s*(missing|null)`), types.FillMedian},
	{regexp.MustCompile(`fill\s*(missing|null|nan|empty)\s*(values?)?\s*(with|using)?\s*mode`), types.FillMode},
	{regexp.MustCompile(`mode\s*(of|for)?\s*(missing|null)`), types.FillMode},
	{regexp.MustCompile(`(drop|remove|delete)\s*(rows?)?\s*(with)?\s*(missing|null|nan|empty)`), types.FillDrop},
	{regexp.MustCompile(`fill\s*(missing|null|nan|empty)\s*(values?)?\s*(with|using)?\s*(\d+\.?\d*)`), types.FillValue},
	{regexp.MustCompile(`(forward\s*fill|ffill)`), types.FillForward},
	{regexp.MustCompile(`(backward\s*fill|bfill)`), types.FillBackward},
}

var reNumber = regexp.MustCompile(`\d+\.?\d*`)

var reStandardize = regexp.MustCompile(`(standardize|normalize|clean|format)\s*(column|col)?\s*names?`)

// Filter prompts carry a keep or remove verb followed by a condition clause.
// The last capture group is always the clause.
var filterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(remove|delete|filter|drop)\s*(rows?)?\s*(where|when|if|with)?\s*(.+?)(?:\s*$|\s*and\s|,)`),
	regexp.MustCompile(`(keep|retain)\s*(only)?\s*(rows?)?\s*(where|when|if|with)?\s*(.+?)(?:\s*$|\s*and\s|,)`),
}

var reConditionClause = regexp.MustCompile(`(\w+)\s*([<>=!]+|is|equals?)\s*["']?([\w.]+)["']?`)

type dtypePattern struct {
	re    *regexp.Regexp
	dtype types.Dtype
}

var dtypePatterns = []dtypePattern{
	{regexp.MustCompile(`convert\s+(\w+)\s*(column)?\s*(to|as)\s*(int|integer)`), types.DtypeInt},
	{regexp.MustCompile(`convert\s+(\w+)\s*(column)?\s*(to|as)\s*(float|decimal|number)`), types.DtypeFloat},
	{regexp.MustCompile(`convert\s+(\w+)\s*(column)?\s*(to|as)\s*(str|string|text)`), types.DtypeString},
	{regexp.MustCompile(`convert\s+(\w+)\s*(column)?\s*(to|as)\s*(date|datetime)`), types.DtypeDatetime},
	{regexp.MustCompile(`convert\s+(\w+)\s*(column)?\s*(to|as)\s*(bool|boolean)`), types.DtypeBool},
	{regexp.MustCompile(`(\w+)\s*(column)?\s*(should\s*be|must\s*be|as)\s*(int|integer)`), types.DtypeInt},
}

var dropPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(drop|remove|delete)\s*(the)?\s*(\w+)\s*(column)`),
	regexp.MustCompile(`(drop|remove|delete)\s*(column)s?\s*[:\-]?\s*(.+)`),
}

// Parse matches the prompt against each family in a fixed order:
// duplicates, fill, standardize, filter, dtype, drop.
func (p *PatternStrategy) Parse(_ context.Context, prompt string, catalog types.Catalog) ([]types.Rule, error) {
	lower := strings.ToLower(prompt)
	var rules []types.Rule

	if reDuplicates.MatchString(lower) {
		rules = append(rules, &types.RemoveDuplicates{Columns: columnsOrAll(catalog, prompt)})
	}

	for _, fp := range fillPatterns {
		matched := fp.re.FindString(lower)
		if matched == "" {
			continue
		}
		rule := &types.FillMissing{Columns: columnsOrAll(catalog, prompt), Method: fp.method}
		if fp.method == types.FillValue {
			if num := reNumber.FindString(matched); num != "" {
				rule.Value = literalValue(num)
			}
		}
		rules = append(rules, rule)
		break
	}

	if reStandardize.MatchString(lower) {
		rules = append(rules, &types.StandardizeColumns{})
	}

	for _, fp := range filterPatterns {
		m := fp.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		verb := m[1]
		clause := strings.TrimSpace(m[len(m)-1])

		cm := reConditionClause.FindStringSubmatch(clause)
		if cm == nil {
			continue
		}
		column, ok := catalog.Resolve(cm[1])
		if !ok {
			continue
		}
		cmp, ok := types.ParseComparator(cm[2])
		if !ok {
			continue
		}
		// Removal verbs describe the rows to discard; the stored
		// condition always selects the rows to keep.
		if verb == "remove" || verb == "delete" || verb == "drop" {
			cmp = cmp.Invert()
		}

		cond := types.Condition{Column: column, Cmp: cmp, Literal: literalValue(cm[3])}
		rules = append(rules, &types.FilterRows{Condition: cond.String()})
		break
	}

	for _, dp := range dtypePatterns {
		m := dp.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if column, ok := catalog.Resolve(m[1]); ok {
			rules = append(rules, &types.ConvertDtype{Column: column, Dtype: dp.dtype})
		}
	}

	for _, dp := range dropPatterns {
		matched := dp.FindString(lower)
		if matched == "" {
			continue
		}
		if cols := catalog.MatchSubstring(matched); cols != nil {
			rules = append(rules, &types.DropColumns{Columns: cols})
			break
		}
	}

	return rules, nil
}

// columnsOrAll selects the columns named in the prompt, or every column
// when the prompt names none.
func columnsOrAll(catalog types.Catalog, prompt string) types.Selector {
	if cols := catalog.MatchSubstring(prompt); cols != nil {
		return types.ColumnList(cols...)
	}
	return types.AllColumns()
}

// literalValue coerces a numeric-looking token to int when it has no
// decimal point and float when it does, falling back to string.
func literalValue(token string) types.Value {
	if !strings.Contains(token, ".") {
		if n, err := strconv.ParseInt(token, 10, 64); err == nil {
			return types.IntValue(n)
		}
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return types.FloatValue(f)
	}
	return types.StringValue(token)
}
