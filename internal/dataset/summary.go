package dataset

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Reason classifies why a snapshot or ticker contributed no row.
type Reason string

const (
	ReasonUnparseableTimestamp Reason = "unparseable_timestamp"
	ReasonUnreadableDocument   Reason = "unreadable_document"
	ReasonMissingStockPrice    Reason = "missing_stock_price"
	ReasonUndefinedChange      Reason = "undefined_stock_change"
	ReasonUnreadableDirectory  Reason = "unreadable_directory"
	ReasonIncompleteRow        Reason = "incomplete_row"
)

// Summary reports what a run did. Skips are expected and counted, not
// treated as errors.
type Summary struct {
	RunID         uuid.UUID      `json:"run_id"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Tickers       int            `json:"tickers"`
	TickersFailed int            `json:"tickers_failed"`
	Snapshots     int            `json:"snapshots"`
	Rows          int            `json:"rows"`
	Skipped       map[Reason]int `json:"skipped"`
}

func newSummary(runID uuid.UUID) *Summary {
	return &Summary{
		RunID:     runID,
		StartedAt: time.Now(),
		Skipped:   make(map[Reason]int),
	}
}

// TotalSkipped returns the number of skipped snapshots and tickers.
func (s *Summary) TotalSkipped() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Summary) merge(r *tickerResult) {
	s.Tickers++
	if r.failed {
		s.TickersFailed++
	}
	s.Snapshots += r.seen
	for k, v := range r.skips {
		s.Skipped[k] += v
	}
}

// Log writes the run summary, one line overall and one per skip reason.
func (s *Summary) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("dataset assembled",
		"run_id", s.RunID,
		"tickers", s.Tickers,
		"tickers_failed", s.TickersFailed,
		"snapshots", s.Snapshots,
		"rows", s.Rows,
		"skipped", s.TotalSkipped(),
		"duration", s.Duration().Round(time.Millisecond),
	)
	for _, reason := range slices.Sorted(maps.Keys(s.Skipped)) {
		logger.Info("skipped", "run_id", s.RunID, "reason", string(reason), "count", s.Skipped[reason])
	}
}
