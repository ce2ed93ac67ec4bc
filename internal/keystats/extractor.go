package keystats

import (
	"regexp"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/keystats/pkg/models"
)

// valueToken matches the first value after a label: a number with optional
// upper-case K/M/B and %, or one of the page's placeholders, closed by a
// cell or span. Anything may sit between the label and the value. A
// lower-case suffix does not close a token, so "1.5b</td>" is passed over.
const valueToken = `.*?(-?\d+\.*\d*K?M?B?|N/A[\\n|\s]*|>0|NaN)%?(?:</td>|</span>)`

// Extractor locates schema metrics in snapshot pages.
// It is safe for concurrent use.
type Extractor struct {
	schema   *Schema
	patterns [][]labelPattern // per metric: canonical label, then aliases
}

type labelPattern struct {
	label string
	re    *regexp.Regexp
}

// Match describes where a metric's value was found.
type Match struct {
	Metric string     `json:"metric"`
	Label  string     `json:"label,omitempty"` // spelling that matched; empty when missing
	Raw    string     `json:"raw,omitempty"`
	Value  null.Float `json:"value"`
}

// NewExtractor compiles the label patterns of a schema.
func NewExtractor(schema *Schema) *Extractor {
	e := &Extractor{
		schema:   schema,
		patterns: make([][]labelPattern, len(schema.metrics)),
	}
	for i, m := range schema.metrics {
		labels := append([]string{m}, schema.aliases[m]...)
		for _, l := range labels {
			e.patterns[i] = append(e.patterns[i], labelPattern{
				label: l,
				re:    regexp.MustCompile(`(?s)>` + regexp.QuoteMeta(l) + valueToken),
			})
		}
	}
	return e
}

// Schema returns the schema the extractor was built from.
func (e *Extractor) Schema() *Schema { return e.schema }

// Extract builds the metric record for one snapshot page.
func (e *Extractor) Extract(ticker string, ts time.Time, document string) models.ExtractedRecord {
	return models.ExtractedRecord{
		Ticker:    ticker,
		Timestamp: ts,
		Values:    e.ExtractValues(document),
	}
}

// ExtractValues returns one value per schema metric, in schema order.
func (e *Extractor) ExtractValues(document string) []null.Float {
	matches := e.Explain(document)
	values := make([]null.Float, len(matches))
	for i, m := range matches {
		values[i] = m.Value
	}
	return values
}

// Explain reports, for every schema metric, which label matched and the raw
// token it captured.
func (e *Extractor) Explain(document string) []Match {
	// Thousands separators would split a number into two tokens.
	src := strings.ReplaceAll(document, ",", "")

	out := make([]Match, len(e.patterns))
	for i, pats := range e.patterns {
		out[i].Metric = e.schema.metrics[i]
		for _, p := range pats {
			sub := p.re.FindStringSubmatch(src)
			if sub == nil {
				continue
			}
			out[i].Label = p.label
			out[i].Raw = sub[1]
			out[i].Value = Normalize(sub[1])
			break
		}
	}
	return out
}
