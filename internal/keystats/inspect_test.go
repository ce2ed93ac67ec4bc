package keystats

import (
	"strings"
	"testing"
)

func TestInspect(t *testing.T) {
	cells, err := Inspect(strings.NewReader(samplePage), DefaultSchema())
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if len(cells) != 6 {
		t.Fatalf("len(cells) = %d, want 6", len(cells))
	}

	first := cells[0]
	if first.Label != "Market Cap (intraday)5:" || first.Value != "1.5B" || first.Metric != "Market Cap" {
		t.Errorf("cells[0] = %+v", first)
	}

	beta := cells[3]
	if beta.Label != "Beta:" || beta.Value != "1.20" || beta.Metric != "Beta" {
		t.Errorf("cells[3] = %+v", beta)
	}

	vol := cells[4]
	if vol.Metric != "Avg Vol (3 month)" || vol.Value != "1,234,567" {
		t.Errorf("cells[4] = %+v, want alias tagged with canonical metric", vol)
	}
}

func TestInspectWithoutSchema(t *testing.T) {
	page := `<table><tr><td>Dividend Date</td><td>Feb 16, 2012</td></tr><tr><td>lonely</td></tr></table>`
	cells, err := Inspect(strings.NewReader(page), nil)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if len(cells) != 1 {
		t.Fatalf("len(cells) = %d, want 1", len(cells))
	}
	if cells[0].Label != "Dividend Date" || cells[0].Value != "Feb 16, 2012" || cells[0].Metric != "" {
		t.Errorf("cells[0] = %+v", cells[0])
	}
}
