// Package parser translates natural language cleaning prompts into ordered
// typed rules. A semantic strategy backed by a generative model is tried
// first when configured; a regex pattern strategy always stands behind it,
// so parsing degrades silently instead of failing.
package parser

import (
	"context"
	"fmt"

	"github.com/datagroom/datagroom/pkg/types"
)

// Result is the outcome of parsing one prompt.
type Result struct {
	// Prompt is the original instruction text.
	Prompt string

	// ParserUsed names the strategy that produced the rules.
	ParserUsed string

	// Rules are the ordered cleaning rules.
	Rules []types.Rule

	// Warnings records strategies that failed before one succeeded.
	Warnings []string
}

// Strategy is one way of turning a prompt into rules.
type Strategy interface {
	Name() string
	Parse(ctx context.Context, prompt string, catalog types.Catalog) ([]types.Rule, error)
}

// Engine runs a strategy chain.
type Engine struct {
	strategies []Strategy
}

// New builds an engine from the given strategies, tried in order.
func New(strategies ...Strategy) (*Engine, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("parser: at least one strategy is required")
	}
	return &Engine{strategies: strategies}, nil
}

// Parse tries each strategy in order and returns the first success. A
// strategy failure becomes a warning on the result, not an error, as long
// as a later strategy succeeds.
func (e *Engine) Parse(ctx context.Context, prompt string, catalog types.Catalog) (Result, error) {
	result := Result{Prompt: prompt}

	for _, s := range e.strategies {
		rules, err := s.Parse(ctx, prompt, catalog)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s parsing failed, using fallback: %v", s.Name(), err))
			continue
		}
		result.ParserUsed = s.Name()
		result.Rules = rules
		return result, nil
	}

	return result, fmt.Errorf("parser: all strategies failed")
}
