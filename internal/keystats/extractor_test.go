package keystats

import (
	"strings"
	"testing"
	"time"
)

const samplePage = `<html><body>
<table class="yfnc_datamodoutline1">
<tr><td class="yfnc_tablehead1" width="74%">Market Cap (intraday)<font size="-1"><sup>5</sup></font>:</td><td class="yfnc_tabledata1"><span id="yfs_j10_aaa">1.5B</span></td></tr>
<tr><td class="yfnc_tablehead1" width="74%">Forward P/E (fye Sep 27, 2011)<font size="-1"><sup>1</sup></font>:</td><td class="yfnc_tabledata1">N/A</td></tr>
<tr><td class="yfnc_tablehead1" width="74%">Profit Margin (ttm):</td><td class="yfnc_tabledata1">-12.34%</td></tr>
<tr><td class="yfnc_tablehead1" width="74%">Beta:</td>
    <td class="yfnc_tabledata1">1.20</td></tr>
<tr><td class="yfnc_tablehead1" width="74%">Average Volume (3 month)<font size="-1"><sup>3</sup></font>:</td><td class="yfnc_tabledata1">1,234,567</td></tr>
<tr><td class="yfnc_tablehead1" width="74%">Float:</td><td class="yfnc_tabledata1">250K</td></tr>
</table>
</body></html>`

func TestExtract(t *testing.T) {
	e := NewExtractor(DefaultSchema())
	ts := time.Date(2010, 1, 4, 9, 30, 0, 0, time.UTC)

	rec := e.Extract("aaa", ts, samplePage)
	if rec.Ticker != "aaa" || !rec.Timestamp.Equal(ts) {
		t.Errorf("record metadata = %q %v", rec.Ticker, rec.Timestamp)
	}
	if len(rec.Values) != 41 {
		t.Fatalf("len(Values) = %d, want 41", len(rec.Values))
	}

	tests := []struct {
		metric   string
		expected float64
	}{
		{"Market Cap", 1.5e9},
		{"Profit Margin", -12.34},
		{"Beta", 1.2},
		{"Avg Vol (3 month)", 1234567},
		{"Float", 250000},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			i, _ := e.Schema().Index(tt.metric)
			v := rec.Values[i]
			if !v.Valid || v.Float64 != tt.expected {
				t.Errorf("%s = %+v, want %v", tt.metric, v, tt.expected)
			}
		})
	}

	for _, m := range []string{"Forward P/E", "Trailing P/E", "Total Debt", "Shares Short (as of"} {
		i, _ := e.Schema().Index(m)
		if rec.Values[i].Valid {
			t.Errorf("%s = %v, want missing", m, rec.Values[i].Float64)
		}
	}
	if rec.Present() != len(tests) {
		t.Errorf("Present() = %d, want %d", rec.Present(), len(tests))
	}
}

func TestExplainReportsAlias(t *testing.T) {
	e := NewExtractor(DefaultSchema())
	matches := e.Explain(samplePage)

	i, _ := e.Schema().Index("Avg Vol (3 month)")
	m := matches[i]
	if m.Metric != "Avg Vol (3 month)" || m.Label != "Average Volume (3 month)" {
		t.Errorf("alias match = %+v", m)
	}
	if m.Raw != "1234567" {
		t.Errorf("Raw = %q, want commas stripped", m.Raw)
	}

	i, _ = e.Schema().Index("Forward P/E")
	if matches[i].Label != "Forward P/E" || matches[i].Raw != "N/A" || matches[i].Value.Valid {
		t.Errorf("placeholder match = %+v", matches[i])
	}

	i, _ = e.Schema().Index("EBITDA")
	if matches[i].Label != "" || matches[i].Value.Valid {
		t.Errorf("absent metric = %+v, want empty match", matches[i])
	}
}

func TestExtractPrefersCanonicalLabel(t *testing.T) {
	page := `<td>Average Volume (3 month):</td><td>100</td>` +
		`<td>Avg Vol (3 month):</td><td>200</td>`
	e := NewExtractor(DefaultSchema())
	i, _ := e.Schema().Index("Avg Vol (3 month)")
	if v := e.ExtractValues(page)[i]; !v.Valid || v.Float64 != 200 {
		t.Errorf("Avg Vol = %+v, want 200 from canonical label", v)
	}
}

func TestExtractCustomSchema(t *testing.T) {
	s, err := NewSchema([]string{"Beta", "Payout Ratio"}, map[string][]string{
		"Payout Ratio": {"Dividend Payout", "Payout"},
	})
	if err != nil {
		t.Fatalf("NewSchema() error: %v", err)
	}
	page := `<span>Payout:</span><span>45.5%</span><span>Beta</span><span>0.9</span>`
	values := NewExtractor(s).ExtractValues(page)
	if len(values) != 2 {
		t.Fatalf("len(values) = %d, want 2", len(values))
	}
	if !values[0].Valid || values[0].Float64 != 0.9 {
		t.Errorf("Beta = %+v, want 0.9", values[0])
	}
	if !values[1].Valid || values[1].Float64 != 45.5 {
		t.Errorf("Payout Ratio = %+v, want 45.5 via second alias", values[1])
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	e := NewExtractor(DefaultSchema())
	for _, doc := range []string{"", "no markup at all", strings.Repeat("<td></td>", 50)} {
		rec := e.Extract("x", time.Time{}, doc)
		if len(rec.Values) != 41 || rec.Present() != 0 {
			t.Errorf("Extract(%.20q) present = %d, want 0 of 41", doc, rec.Present())
		}
	}
}

func TestExtractSuffixIsCaseSensitive(t *testing.T) {
	e := NewExtractor(DefaultSchema())
	tests := []struct {
		name     string
		doc      string
		expected float64
	}{
		{"upper-case suffix", `<td>Float:</td><td>1.5B</td><td>2.0</td>`, 1.5e9},
		{"lower-case suffix skipped", `<td>Float:</td><td>1.5b</td><td>2.0</td>`, 2},
		{"lower-case before span", `<td>Float:</td><td><span>3m</span></td><td>4%</td>`, 4},
	}
	i, _ := e.Schema().Index("Float")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := e.ExtractValues(tt.doc)[i]
			if !v.Valid || v.Float64 != tt.expected {
				t.Errorf("Float = %+v, want %v", v, tt.expected)
			}
		})
	}
}
