// Package pipeline sequences the rule parser and the rule executor into a
// single cleaning run. It is the only entry point the CLI, the HTTP API,
// and the persistence layer use.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/internal/executor"
	"github.com/datagroom/datagroom/internal/observability"
	"github.com/datagroom/datagroom/internal/parser"
	"github.com/datagroom/datagroom/pkg/types"
)

// Pipeline turns a prompt and a table into a cleaned table.
type Pipeline struct {
	engine *parser.Engine
	exec   *executor.Executor
	stats  *observability.RunStats
	logger *zap.Logger
}

// New wires a pipeline. stats may be nil when no tracking is wanted;
// a nil logger disables logging.
func New(engine *parser.Engine, exec *executor.Executor, stats *observability.RunStats, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{engine: engine, exec: exec, stats: stats, logger: logger}
}

// Request is one cleaning run: a natural-language prompt applied to a table.
type Request struct {
	Prompt string
	Table  types.Table
}

// Summary is the full outcome of a run.
type Summary struct {
	RunID         string
	Prompt        string
	ParserUsed    string
	Rules         []types.Rule
	Warnings      []string
	Actions       []string
	Table         types.Table
	RowsBefore    int
	RowsAfter     int
	ColumnsBefore int
	ColumnsAfter  int
	Duration      time.Duration
}

// Run validates the request, parses the prompt against the table's column
// catalog, and applies the resulting rules. A prompt that yields zero rules
// is not an error; the summary simply reports no actions.
func (p *Pipeline) Run(ctx context.Context, req Request) (Summary, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Summary{}, derrors.NewValidationError(derrors.CodeEmptyPrompt, "prompt must not be empty")
	}
	if req.Table.NumCols() == 0 {
		return Summary{}, derrors.NewValidationError(derrors.CodeEmptyTable, "table has no columns")
	}

	start := time.Now()
	runID := uuid.NewString()

	catalog := types.CatalogOf(req.Table)
	parsed, err := p.engine.Parse(ctx, req.Prompt, catalog)
	if err != nil {
		return Summary{}, err
	}

	res := p.exec.Execute(req.Table, parsed.Rules)
	duration := time.Since(start)

	if p.stats != nil {
		p.stats.RecordRun(parsed.ParserUsed, parsed.Rules, res.Actions, req.Table.NumRows(), res.Table.NumRows())
	}

	p.logger.Info("cleaning run complete",
		zap.String("run_id", runID),
		zap.String("parser", parsed.ParserUsed),
		zap.Int("rules", len(parsed.Rules)),
		zap.Int("rows_before", req.Table.NumRows()),
		zap.Int("rows_after", res.Table.NumRows()),
		zap.Duration("duration", duration),
	)

	return Summary{
		RunID:         runID,
		Prompt:        req.Prompt,
		ParserUsed:    parsed.ParserUsed,
		Rules:         parsed.Rules,
		Warnings:      parsed.Warnings,
		Actions:       res.Actions,
		Table:         res.Table,
		RowsBefore:    req.Table.NumRows(),
		RowsAfter:     res.Table.NumRows(),
		ColumnsBefore: req.Table.NumCols(),
		ColumnsAfter:  res.Table.NumCols(),
		Duration:      duration,
	}, nil
}
