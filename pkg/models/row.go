package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"
)

// Fixed leading columns of the dataset, in output order.
const (
	ColDate           = "Date"
	ColUnix           = "Unix"
	ColTicker         = "Ticker"
	ColPrice          = "Price"
	ColStockPctChange = "stock_p_change"
	ColIndex          = "SP500"
	ColIndexPctChange = "SP500_p_change"
)

// LeadingColumns lists the non-metric columns of every dataset row.
var LeadingColumns = []string{
	ColDate, ColUnix, ColTicker, ColPrice, ColStockPctChange, ColIndex, ColIndexPctChange,
}

// ErrInvalidRow is returned by Dataset.Validate when a row lacks price data.
var ErrInvalidRow = errors.New("dataset row without price data")

// Row is one labeled training example.
type Row struct {
	Date           time.Time    `json:"date"`
	Unix           int64        `json:"unix"`
	Ticker         string       `json:"ticker"`
	Price          float64      `json:"price"`
	StockPctChange float64      `json:"stock_p_change"`
	IndexPrice     float64      `json:"sp500"`
	IndexPctChange float64      `json:"sp500_p_change"`
	Metrics        []null.Float `json:"metrics"`
}

// NewRow joins an extracted record with its label.
func NewRow(rec ExtractedRecord, lbl Label) Row {
	return Row{
		Date:           lbl.Date,
		Unix:           rec.Timestamp.Unix(),
		Ticker:         rec.Ticker,
		Price:          lbl.Price,
		StockPctChange: lbl.StockPctChange,
		IndexPrice:     lbl.IndexPrice,
		IndexPctChange: lbl.IndexPctChange,
		Metrics:        rec.Values,
	}
}

// Dataset is the ordered output table.
type Dataset struct {
	Metrics []string `json:"metrics"`
	Rows    []Row    `json:"rows"`
}

// Columns returns the full header: leading columns followed by metric names.
func (d *Dataset) Columns() []string {
	cols := make([]string, 0, len(LeadingColumns)+len(d.Metrics))
	cols = append(cols, LeadingColumns...)
	return append(cols, d.Metrics...)
}

// DropIncomplete removes rows whose price or percent-change fields are not
// finite and returns one error per removed row. Order is preserved.
func (d *Dataset) DropIncomplete() []error {
	var dropped []error
	kept := d.Rows[:0]
	for _, r := range d.Rows {
		if err := r.checkPrices(); err != nil {
			dropped = append(dropped, err)
			continue
		}
		kept = append(kept, r)
	}
	clear(d.Rows[len(kept):])
	d.Rows = kept
	return dropped
}

func (r *Row) checkPrices() error {
	switch {
	case !finite(r.Price) || !finite(r.StockPctChange):
		return fmt.Errorf("%s @ %d: %w", r.Ticker, r.Unix, ErrInvalidRow)
	case !finite(r.IndexPrice) || !finite(r.IndexPctChange):
		return fmt.Errorf("%s @ %d: index fields unset: %w", r.Ticker, r.Unix, ErrInvalidRow)
	}
	return nil
}

// Validate checks that every row has usable price fields and a metric
// vector of the dataset's width. Rows are built only from successful labels,
// so a failure here points at a defect upstream.
func (d *Dataset) Validate() error {
	var errs []error
	for i, r := range d.Rows {
		if err := r.checkPrices(); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		if len(r.Metrics) != len(d.Metrics) {
			errs = append(errs, fmt.Errorf("row %d (%s @ %d): %d metrics, want %d", i, r.Ticker, r.Unix, len(r.Metrics), len(d.Metrics)))
		}
	}
	return errors.Join(errs...)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
