// Package observability tracks cleaning-run statistics for the stats API
// and for operational logging.
package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/datagroom/datagroom/pkg/types"
)

// RunStats tracks how the service is being used: runs per parser, action
// frequency, failure counts, and row throughput. All methods are thread-safe.
type RunStats struct {
	mu         sync.RWMutex
	totalRuns  int64
	parserRuns map[string]int64
	actionRuns map[string]*ActionStats
	rowsIn     int64
	rowsOut    int64
	lastRun    time.Time
}

// ActionStats holds counters for one action kind.
type ActionStats struct {
	Action   string
	Runs     int64
	Failures int64
	LastSeen time.Time
}

// Snapshot is a point-in-time copy of the counters, shaped for JSON replies.
type Snapshot struct {
	TotalRuns  int64                  `json:"total_runs"`
	ParserRuns map[string]int64       `json:"parser_runs"`
	Actions    map[string]ActionStats `json:"actions"`
	RowsIn     int64                  `json:"rows_in"`
	RowsOut    int64                  `json:"rows_out"`
	LastRun    time.Time              `json:"last_run,omitempty"`
}

// NewRunStats creates an empty statistics tracker.
func NewRunStats() *RunStats {
	return &RunStats{
		parserRuns: make(map[string]int64),
		actionRuns: make(map[string]*ActionStats),
	}
}

// RecordRun records one completed cleaning run. rules and actions are the
// executor's input and its log, index-aligned; a log entry in the failure
// vocabulary counts the rule as failed. This method is O(rules) and
// thread-safe.
func (s *RunStats) RecordRun(parserUsed string, rules []types.Rule, actions []string, rowsIn, rowsOut int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.totalRuns++
	s.parserRuns[parserUsed]++
	s.rowsIn += int64(rowsIn)
	s.rowsOut += int64(rowsOut)
	s.lastRun = now

	for i, rule := range rules {
		name := rule.Kind().String()
		if u, ok := rule.(*types.UnknownRule); ok {
			name = u.Action
		}
		stats, ok := s.actionRuns[name]
		if !ok {
			stats = &ActionStats{Action: name}
			s.actionRuns[name] = stats
		}
		stats.Runs++
		stats.LastSeen = now
		if i < len(actions) && entryIndicatesFailure(actions[i]) {
			stats.Failures++
		}
	}
}

// Snapshot returns a deep copy of the counters.
func (s *RunStats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TotalRuns:  s.totalRuns,
		ParserRuns: make(map[string]int64, len(s.parserRuns)),
		Actions:    make(map[string]ActionStats, len(s.actionRuns)),
		RowsIn:     s.rowsIn,
		RowsOut:    s.rowsOut,
		LastRun:    s.lastRun,
	}
	for name, n := range s.parserRuns {
		snap.ParserRuns[name] = n
	}
	for name, a := range s.actionRuns {
		snap.Actions[name] = *a
	}
	return snap
}

// failurePrefixes is the executor's log vocabulary for rules that could not
// run. Matching entries count as failures in the per-action counters.
var failurePrefixes = []string{
	"Error in ",
	"Unknown action: ",
	"Unknown dtype: ",
	"Unknown fill method: ",
	"Could not apply filter: ",
	"Column '",
	"No filter condition provided",
	"No target dtype specified",
	"No fill value provided",
	"No valid columns",
	"No column mapping provided",
}

func entryIndicatesFailure(entry string) bool {
	for _, prefix := range failurePrefixes {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}
