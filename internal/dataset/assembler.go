// Package dataset assembles the labeled key-statistics dataset: it walks
// every ticker's snapshots, extracts their metrics, attaches forward price
// labels and emits a deterministically ordered table.
package dataset

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/keystats/internal/datasource"
	"github.com/seenimoa/keystats/internal/keystats"
	"github.com/seenimoa/keystats/internal/label"
	"github.com/seenimoa/keystats/internal/series"
	"github.com/seenimoa/keystats/pkg/models"
	"github.com/seenimoa/keystats/pkg/utils"
)

// DefaultWorkers is the number of tickers processed concurrently.
const DefaultWorkers = 4

// DefaultExtension is the snapshot file extension.
const DefaultExtension = ".html"

// ErrEmptyIndex is returned when the index series has no usable price.
var ErrEmptyIndex = errors.New("index price series is empty")

// Input bundles the read-only inputs of a run.
type Input struct {
	Store   datasource.SnapshotStore
	Tickers []string // nil selects every ticker in Store; duplicates run once
	Prices  *datasource.PriceTable
	Index   models.PriceSeries
}

// Assembler builds datasets. One Assembler may run several times.
type Assembler struct {
	extractor *keystats.Extractor
	labels    *label.Builder
	workers   int
	loc       *time.Location
	ext       string
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithWorkers bounds the number of tickers processed at once.
func WithWorkers(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLocation sets the zone snapshot file names are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(a *Assembler) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithExtension sets the snapshot file extension, including the dot.
func WithExtension(ext string) Option {
	return func(a *Assembler) { a.ext = ext }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAssembler creates an Assembler around an extractor and a label builder.
func NewAssembler(extractor *keystats.Extractor, labels *label.Builder, opts ...Option) *Assembler {
	a := &Assembler{
		extractor: extractor,
		labels:    labels,
		workers:   DefaultWorkers,
		loc:       time.Local,
		ext:       DefaultExtension,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type tickerResult struct {
	rows   []models.Row
	seen   int
	failed bool
	skips  map[Reason]int
}

// Assemble runs the pipeline over every ticker and returns the sorted
// dataset with a summary of what was skipped. Rows left without finite
// price fields are dropped in a final pass. It fails only on inputs that
// make the whole run meaningless: an empty or gappy index series, an
// unlistable snapshot store, or cancellation.
func (a *Assembler) Assemble(ctx context.Context, in Input) (*models.Dataset, *Summary, error) {
	summary := newSummary(uuid.New())
	log := a.logger.With("run_id", summary.RunID)

	index := series.Align(in.Index)
	if index.Empty() {
		return nil, nil, ErrEmptyIndex
	}
	log.Debug("index aligned",
		"from", utils.FormatDate(index.Start()),
		"to", utils.FormatDate(index.End()),
		"days", index.Len(),
	)

	tickers := uniqueTickers(in.Tickers)
	if in.Tickers == nil {
		var err error
		if tickers, err = in.Store.Tickers(ctx); err != nil {
			return nil, nil, fmt.Errorf("list tickers: %w", err)
		}
	}
	prices := in.Prices
	if prices == nil {
		prices = datasource.NewPriceTable(nil)
	}

	// One slot per ticker; each worker owns its slot, so no locking.
	results := make([]*tickerResult, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			res, err := a.processTicker(gctx, log.With("ticker", ticker), in.Store, ticker, prices, index)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ds := &models.Dataset{Metrics: a.extractor.Schema().Metrics()}
	for _, res := range results {
		ds.Rows = append(ds.Rows, res.rows...)
		summary.merge(res)
	}
	SortRows(ds.Rows)

	for _, err := range ds.DropIncomplete() {
		log.Warn("dropping row", "error", err)
		summary.Skipped[ReasonIncompleteRow]++
	}
	if err := ds.Validate(); err != nil {
		return nil, nil, fmt.Errorf("dataset integrity: %w", err)
	}
	summary.Rows = len(ds.Rows)
	summary.FinishedAt = time.Now()
	return ds, summary, nil
}

// processTicker handles one ticker's snapshots sequentially. Errors it
// returns abort the run; everything else is logged and counted.
func (a *Assembler) processTicker(
	ctx context.Context,
	log *slog.Logger,
	store datasource.SnapshotStore,
	ticker string,
	prices *datasource.PriceTable,
	index *series.Aligned,
) (*tickerResult, error) {
	res := &tickerResult{skips: make(map[Reason]int)}

	names, err := store.List(ctx, ticker)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		log.Warn("skipping ticker", "error", err)
		res.failed = true
		res.skips[ReasonUnreadableDirectory]++
		return res, nil
	}

	src, ok := prices.Series(ticker)
	if !ok {
		log.Debug("no price data for ticker")
	}
	stock := series.Align(src)

	for _, name := range names {
		res.seen++

		ts, err := utils.ParseSnapshotName(name, a.ext, a.loc)
		if err != nil {
			log.Warn("skipping snapshot", "file", name, "error", err)
			res.skips[ReasonUnparseableTimestamp]++
			continue
		}

		// The label gates inclusion, so it is computed before the document
		// is read; skipped snapshots are never parsed.
		lbl, err := a.labels.Build(ts, stock, index)
		if err != nil {
			if !label.IsSkip(err) {
				return res, fmt.Errorf("%s/%s: %w", ticker, name, err)
			}
			res.skips[labelSkipReason(err)]++
			continue
		}

		doc, err := store.Read(ctx, ticker, name)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Warn("skipping snapshot", "file", name, "error", err)
			res.skips[ReasonUnreadableDocument]++
			continue
		}

		rec := a.extractor.Extract(ticker, ts, doc)
		log.Debug("snapshot extracted", "file", name, "metrics", rec.Present())
		res.rows = append(res.rows, models.NewRow(rec, lbl))
	}

	log.Debug("ticker done", "snapshots", res.seen, "rows", len(res.rows))
	return res, nil
}

// uniqueTickers returns the sorted, duplicate-free set of tickers. Each
// ticker must run once or its rows would be emitted twice.
func uniqueTickers(tickers []string) []string {
	out := slices.Clone(tickers)
	slices.Sort(out)
	return slices.Compact(out)
}

func labelSkipReason(err error) Reason {
	if errors.Is(err, label.ErrStockChangeUndefined) {
		return ReasonUndefinedChange
	}
	return ReasonMissingStockPrice
}

// SortRows orders rows by ticker, then snapshot time.
func SortRows(rows []models.Row) {
	slices.SortStableFunc(rows, func(a, b models.Row) int {
		if c := strings.Compare(a.Ticker, b.Ticker); c != 0 {
			return c
		}
		return cmp.Compare(a.Unix, b.Unix)
	})
}
