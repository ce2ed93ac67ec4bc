package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/seenimoa/keystats/pkg/models"
	"github.com/seenimoa/keystats/pkg/utils"
)

// PriceTable holds adjusted-close series keyed by upper-cased ticker.
// It is read-only after loading and safe to share between goroutines.
type PriceTable struct {
	series map[string]models.PriceSeries
	rows   int
}

// NewPriceTable builds a table from in-memory series.
func NewPriceTable(series map[string]models.PriceSeries) *PriceTable {
	t := &PriceTable{series: make(map[string]models.PriceSeries, len(series))}
	for k, s := range series {
		t.series[utils.PriceColumn(k)] = s
		t.rows = max(t.rows, len(s))
	}
	return t
}

// Series returns the price points recorded for a ticker, in any case.
func (t *PriceTable) Series(ticker string) (models.PriceSeries, bool) {
	s, ok := t.series[utils.PriceColumn(ticker)]
	return s, ok
}

// Tickers returns the table's columns, sorted.
func (t *PriceTable) Tickers() []string {
	out := make([]string, 0, len(t.series))
	for k := range t.series {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Rows returns the number of dated rows the table was loaded from.
func (t *PriceTable) Rows() int { return t.rows }

// LoadPriceTable reads a wide CSV: a Date column plus one price column per
// ticker. Empty, NaN or otherwise unparseable cells are treated as days
// without a price.
func LoadPriceTable(r io.Reader) (*PriceTable, error) {
	header, records, err := readTable(r)
	if err != nil {
		return nil, err
	}
	dateCol := dateColumn(header)

	t := &PriceTable{series: make(map[string]models.PriceSeries, len(header)-1), rows: len(records)}
	for _, rec := range records {
		d, err := utils.ParseDate(rec.fields[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", rec.line, err)
		}
		for i, name := range header {
			if i == dateCol {
				continue
			}
			if p, ok := parsePrice(rec.fields[i]); ok {
				key := utils.PriceColumn(name)
				t.series[key] = append(t.series[key], models.PricePoint{Date: d, Price: p})
			}
		}
	}
	return t, nil
}

// LoadPriceTableFile opens and loads a price table.
func LoadPriceTableFile(path string) (*PriceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price table: %w", err)
	}
	defer f.Close()

	t, err := LoadPriceTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadIndexSeries reads one price column (matched case-insensitively) from
// an index CSV such as a downloaded OHLCV history.
func LoadIndexSeries(r io.Reader, column string) (models.PriceSeries, error) {
	header, records, err := readTable(r)
	if err != nil {
		return nil, err
	}
	dateCol := dateColumn(header)

	col := -1
	for i, name := range header {
		if i != dateCol && strings.EqualFold(strings.TrimSpace(name), column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%q: %w", column, ErrColumnNotFound)
	}

	s := make(models.PriceSeries, 0, len(records))
	for _, rec := range records {
		d, err := utils.ParseDate(rec.fields[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", rec.line, err)
		}
		if p, ok := parsePrice(rec.fields[col]); ok {
			s = append(s, models.PricePoint{Date: d, Price: p})
		}
	}
	return s, nil
}

// LoadIndexSeriesFile opens and loads an index price column.
func LoadIndexSeriesFile(path, column string) (models.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index table: %w", err)
	}
	defer f.Close()

	s, err := LoadIndexSeries(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

type record struct {
	line   int
	fields []string
}

func readTable(r io.Reader) ([]string, []record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrNoDateColumn
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, nil, ErrNoDateColumn
	}
	// Byte order mark left by spreadsheet exports.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var records []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read price table: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyTable
	}
	return header, records, nil
}

// dateColumn finds the "Date" column; tables written with an unnamed index
// carry the dates in the first column.
func dateColumn(header []string) int {
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "date") {
			return i
		}
	}
	return 0
}

func parsePrice(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	p, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}
