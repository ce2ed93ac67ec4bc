// Package keystats extracts fundamental metrics from key-statistics snapshot
// pages. A Schema fixes the ordered metric list, an Extractor locates each
// metric's value in a page, and Normalize turns the raw token into a number.
package keystats

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Schema validation errors.
var (
	ErrEmptySchema     = errors.New("metric schema is empty")
	ErrDuplicateMetric = errors.New("duplicate metric name")
	ErrUnknownMetric   = errors.New("alias refers to unknown metric")
)

// canonicalMetrics is the ordered metric list of the key-statistics pages.
// Some labels are prefixes of the page text ("Shares Short (as of") because
// the rest of the label carries a date.
var canonicalMetrics = []string{
	// Valuation measures
	"Market Cap",
	"Enterprise Value",
	"Trailing P/E",
	"Forward P/E",
	"PEG Ratio",
	"Price/Sales",
	"Price/Book",
	"Enterprise Value/Revenue",
	"Enterprise Value/EBITDA",
	// Financial highlights
	"Profit Margin",
	"Operating Margin",
	"Return on Assets",
	"Return on Equity",
	"Revenue",
	"Revenue Per Share",
	"Qtrly Revenue Growth",
	"Gross Profit",
	"EBITDA",
	"Net Income Avl to Common",
	"Diluted EPS",
	"Qtrly Earnings Growth",
	"Total Cash",
	"Total Cash Per Share",
	"Total Debt",
	"Total Debt/Equity",
	"Current Ratio",
	"Book Value Per Share",
	"Operating Cash Flow",
	"Levered Free Cash Flow",
	// Trading information
	"Beta",
	"50-Day Moving Average",
	"200-Day Moving Average",
	"Avg Vol (3 month)",
	"Shares Outstanding",
	"Float",
	"% Held by Insiders",
	"% Held by Institutions",
	"Shares Short (as of",
	"Short Ratio",
	"Short % of Float",
	"Shares Short (prior month",
}

// canonicalAliases maps a metric to older spellings of its label.
var canonicalAliases = map[string][]string{
	"Avg Vol (3 month)": {"Average Volume (3 month)"},
}

// Schema is an immutable ordered metric list with its alias table.
type Schema struct {
	metrics []string
	aliases map[string][]string
	index   map[string]int
}

// NewSchema validates and copies a metric list and alias table.
func NewSchema(metrics []string, aliases map[string][]string) (*Schema, error) {
	if len(metrics) == 0 {
		return nil, ErrEmptySchema
	}

	s := &Schema{
		metrics: slices.Clone(metrics),
		aliases: make(map[string][]string, len(aliases)),
		index:   make(map[string]int, len(metrics)),
	}
	for i, m := range s.metrics {
		if strings.TrimSpace(m) == "" {
			return nil, fmt.Errorf("metric %d: empty name", i)
		}
		if _, dup := s.index[m]; dup {
			return nil, fmt.Errorf("%q: %w", m, ErrDuplicateMetric)
		}
		s.index[m] = i
	}
	for m, names := range aliases {
		if _, ok := s.index[m]; !ok {
			return nil, fmt.Errorf("%q: %w", m, ErrUnknownMetric)
		}
		for _, n := range names {
			if strings.TrimSpace(n) == "" {
				return nil, fmt.Errorf("%q: empty alias", m)
			}
		}
		s.aliases[m] = slices.Clone(names)
	}
	return s, nil
}

// DefaultSchema returns the canonical 41-metric schema.
func DefaultSchema() *Schema {
	s, err := NewSchema(canonicalMetrics, canonicalAliases)
	if err != nil {
		panic("keystats: invalid canonical schema: " + err.Error())
	}
	return s
}

// DefaultMetrics returns a copy of the canonical metric list.
func DefaultMetrics() []string { return slices.Clone(canonicalMetrics) }

// DefaultAliases returns a copy of the canonical alias table.
func DefaultAliases() map[string][]string {
	out := make(map[string][]string, len(canonicalAliases))
	for k, v := range canonicalAliases {
		out[k] = slices.Clone(v)
	}
	return out
}

// ExtendedSchema returns the canonical schema with extra fallback labels
// appended after the canonical aliases. Keys of extra are matched to metric
// names case-insensitively because config keys arrive lower-cased.
func ExtendedSchema(extra map[string][]string) (*Schema, error) {
	metrics := DefaultMetrics()
	aliases := DefaultAliases()
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		i := slices.IndexFunc(metrics, func(m string) bool { return strings.EqualFold(m, key) })
		if i < 0 {
			return nil, fmt.Errorf("%q: %w", key, ErrUnknownMetric)
		}
		m := metrics[i]
		for _, name := range extra[key] {
			if name != m && !slices.Contains(aliases[m], name) {
				aliases[m] = append(aliases[m], name)
			}
		}
	}
	return NewSchema(metrics, aliases)
}

// Metrics returns the ordered metric names.
func (s *Schema) Metrics() []string { return slices.Clone(s.metrics) }

// Len returns the number of metrics.
func (s *Schema) Len() int { return len(s.metrics) }

// Aliases returns the fallback labels for a metric, in retry order.
func (s *Schema) Aliases(metric string) []string { return slices.Clone(s.aliases[metric]) }

// Index returns the position of a metric in the schema.
func (s *Schema) Index(metric string) (int, bool) {
	i, ok := s.index[metric]
	return i, ok
}
