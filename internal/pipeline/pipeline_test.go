package pipeline

import (
	"context"
	"errors"
	"testing"

	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/internal/executor"
	"github.com/datagroom/datagroom/internal/observability"
	"github.com/datagroom/datagroom/internal/parser"
	"github.com/datagroom/datagroom/pkg/types"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	engine, err := parser.New(parser.NewPatternStrategy())
	if err != nil {
		t.Fatalf("parser.New failed: %v", err)
	}
	return New(engine, executor.New(nil), observability.NewRunStats(), nil)
}

func sampleTable() types.Table {
	return types.Table{Cols: []types.Column{
		{Name: "name", Kind: types.KindString, Cells: []types.Value{
			types.StringValue("alice"), types.StringValue("bob"), types.StringValue("alice"),
		}},
		{Name: "age", Kind: types.KindInt, Cells: []types.Value{
			types.IntValue(30), types.IntValue(15), types.IntValue(30),
		}},
	}}
}

func TestRunEndToEnd(t *testing.T) {
	p := newTestPipeline(t)

	got, err := p.Run(context.Background(), Request{
		Prompt: "Remove duplicate rows and remove rows where age < 18",
		Table:  sampleTable(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got.ParserUsed != "pattern" {
		t.Errorf("parser_used expected=pattern, got=%s", got.ParserUsed)
	}
	if len(got.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d: %v", len(got.Rules), got.Rules)
	}
	if len(got.Actions) != len(got.Rules) {
		t.Fatalf("expected one log entry per rule, got %d/%d", len(got.Actions), len(got.Rules))
	}
	if got.RowsBefore != 3 || got.RowsAfter != 1 {
		t.Errorf("expected rows 3 -> 1, got %d -> %d", got.RowsBefore, got.RowsAfter)
	}
	if got.RunID == "" {
		t.Errorf("run id not assigned")
	}
	if got.Actions[0] != "Removed 1 duplicate rows" {
		t.Errorf("unexpected first action: %q", got.Actions[0])
	}
	if got.Actions[1] != "Filtered rows with condition 'age >= 18' (removed 1 rows)" {
		t.Errorf("unexpected second action: %q", got.Actions[1])
	}
}

func TestRunZeroRulesIsNotAnError(t *testing.T) {
	p := newTestPipeline(t)

	got, err := p.Run(context.Background(), Request{
		Prompt: "make this data sparkle",
		Table:  sampleTable(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got.Rules) != 0 || len(got.Actions) != 0 {
		t.Errorf("expected no rules for an unrecognized prompt, got %v", got.Rules)
	}
	if got.RowsAfter != got.RowsBefore {
		t.Errorf("table must be unchanged, got %d -> %d", got.RowsBefore, got.RowsAfter)
	}
}

func TestRunValidation(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.Run(context.Background(), Request{Prompt: "   ", Table: sampleTable()})
	var derr *derrors.DatagroomError
	if !errors.As(err, &derr) || derr.Code != derrors.CodeEmptyPrompt {
		t.Fatalf("expected EMPTY_PROMPT error, got %v", err)
	}

	_, err = p.Run(context.Background(), Request{Prompt: "remove duplicates", Table: types.Table{}})
	if !errors.As(err, &derr) || derr.Code != derrors.CodeEmptyTable {
		t.Fatalf("expected EMPTY_TABLE error, got %v", err)
	}
}

func TestRunRecordsStats(t *testing.T) {
	engine, err := parser.New(parser.NewPatternStrategy())
	if err != nil {
		t.Fatalf("parser.New failed: %v", err)
	}
	stats := observability.NewRunStats()
	p := New(engine, executor.New(nil), stats, nil)

	if _, err := p.Run(context.Background(), Request{Prompt: "remove duplicates", Table: sampleTable()}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := stats.Snapshot()
	if snap.TotalRuns != 1 {
		t.Errorf("expected 1 recorded run, got %d", snap.TotalRuns)
	}
	if snap.ParserRuns["pattern"] != 1 {
		t.Errorf("expected pattern run recorded, got %v", snap.ParserRuns)
	}
	if snap.Actions["remove_duplicates"].Runs != 1 {
		t.Errorf("expected dedup action recorded, got %v", snap.Actions)
	}
}

func TestRunNeverMutatesInput(t *testing.T) {
	p := newTestPipeline(t)
	in := sampleTable()
	before := in.Clone()

	if _, err := p.Run(context.Background(), Request{Prompt: "remove duplicate rows", Table: in}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := range before.Cols {
		if len(in.Cols[i].Cells) != len(before.Cols[i].Cells) {
			t.Fatalf("input table mutated in column %s", in.Cols[i].Name)
		}
	}
}
