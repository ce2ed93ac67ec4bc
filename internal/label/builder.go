// Package label computes the forward-return label of a snapshot: the stock
// and index prices on the snapshot date and one horizon later, and their
// percentage changes.
package label

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/seenimoa/keystats/internal/series"
	"github.com/seenimoa/keystats/pkg/models"
	"github.com/seenimoa/keystats/pkg/utils"
)

// DefaultHorizon is the label horizon: a fixed 365 days (31,536,000 s),
// not a calendar year.
const DefaultHorizon = 365 * 24 * time.Hour

// Per-snapshot skip reasons. The snapshot is dropped, the run continues.
var (
	ErrStockPriceMissing    = errors.New("stock price missing at label date")
	ErrStockChangeUndefined = errors.New("stock price is zero on snapshot date")
)

// ErrIndexPriceMissing means the index series cannot price a required date.
// The index is expected to cover the whole observation window, so this
// aborts the run.
var ErrIndexPriceMissing = errors.New("index price missing at label date")

// IsSkip reports whether err only excludes the current snapshot.
func IsSkip(err error) bool {
	return errors.Is(err, ErrStockPriceMissing) || errors.Is(err, ErrStockChangeUndefined)
}

// Builder computes labels. It holds no mutable state and is safe for
// concurrent use.
type Builder struct {
	horizon time.Duration
	loc     *time.Location
}

// NewBuilder creates a Builder. Calendar dates are taken in loc; a zero
// horizon selects DefaultHorizon and a nil loc selects time.Local.
func NewBuilder(horizon time.Duration, loc *time.Location) *Builder {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if loc == nil {
		loc = time.Local
	}
	return &Builder{horizon: horizon, loc: loc}
}

// Horizon returns the label horizon.
func (b *Builder) Horizon() time.Duration { return b.horizon }

// Dates returns the snapshot date and the target date for a timestamp.
func (b *Builder) Dates(ts time.Time) (d0, d1 time.Time) {
	return utils.CalendarDate(ts, b.loc), utils.CalendarDate(ts.Add(b.horizon), b.loc)
}

// Build computes the label for a snapshot taken at ts.
func (b *Builder) Build(ts time.Time, stock, index *series.Aligned) (models.Label, error) {
	d0, d1 := b.Dates(ts)
	lbl := models.Label{Date: d0, TargetDate: d1}

	var ok0, ok1 bool
	lbl.IndexPrice, ok0 = index.At(d0)
	lbl.IndexLater, ok1 = index.At(d1)
	if !ok0 || !ok1 {
		return models.Label{}, fmt.Errorf("%s..%s: %w", utils.FormatDate(d0), utils.FormatDate(d1), ErrIndexPriceMissing)
	}
	if lbl.IndexPrice == 0 {
		return models.Label{}, fmt.Errorf("zero index price on %s: %w", utils.FormatDate(d0), ErrIndexPriceMissing)
	}

	lbl.Price, ok0 = stock.At(d0)
	lbl.PriceLater, ok1 = stock.At(d1)
	if !ok0 || !ok1 {
		return models.Label{}, fmt.Errorf("%s..%s: %w", utils.FormatDate(d0), utils.FormatDate(d1), ErrStockPriceMissing)
	}
	if lbl.Price == 0 {
		return models.Label{}, fmt.Errorf("%s: %w", utils.FormatDate(d0), ErrStockChangeUndefined)
	}

	lbl.StockPctChange = PctChange(lbl.Price, lbl.PriceLater)
	lbl.IndexPctChange = PctChange(lbl.IndexPrice, lbl.IndexLater)
	return lbl, nil
}

// PctChange returns (later-now)/now*100 rounded to two decimals. Rounding
// works on the exact binary value of the quotient, so 3.3250000000000002
// becomes 3.33; only exact ties go to even. now must be non-zero.
func PctChange(now, later float64) float64 {
	pct := (later - now) / now * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return pct
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 2, 64), 64)
	if err != nil {
		return pct
	}
	return rounded
}
