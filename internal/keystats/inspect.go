package keystats

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TableCell is a label/value pair read from a table row of a snapshot page.
type TableCell struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Metric string `json:"metric,omitempty"` // schema metric the label belongs to
}

// Inspect parses a snapshot page and lists every table row that has a label
// cell and at least one value cell. Rows whose label starts with a schema
// label (canonical or alias) are tagged with that metric. It is a debugging
// aid for pages whose markup defeats the extractor.
func Inspect(r io.Reader, schema *Schema) ([]TableCell, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot HTML: %w", err)
	}

	var cells []TableCell
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		tds := row.Find("td")
		if tds.Length() < 2 {
			return
		}
		label := collapse(tds.First().Text())
		if label == "" {
			return
		}
		c := TableCell{
			Label: label,
			Value: collapse(tds.Last().Text()),
		}
		if schema != nil {
			c.Metric, _ = schema.Match(label)
		}
		cells = append(cells, c)
	})
	return cells, nil
}

// Match returns the metric whose canonical label or alias is the longest
// prefix of label.
func (s *Schema) Match(label string) (string, bool) {
	best, bestLen := "", 0
	for _, m := range s.metrics {
		for _, l := range append([]string{m}, s.aliases[m]...) {
			if len(l) > bestLen && strings.HasPrefix(label, l) {
				best, bestLen = m, len(l)
			}
		}
	}
	return best, bestLen > 0
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
