package label

import (
	"errors"
	"testing"
	"time"

	"github.com/seenimoa/keystats/internal/series"
	"github.com/seenimoa/keystats/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func aligned(pts ...models.PricePoint) *series.Aligned {
	return series.Align(models.PriceSeries(pts))
}

func TestBuild(t *testing.T) {
	b := NewBuilder(DefaultHorizon, time.UTC)
	ts := time.Date(2010, 1, 4, 9, 30, 0, 0, time.UTC)

	stock := aligned(
		models.PricePoint{Date: date(2010, 1, 4), Price: 50},
		models.PricePoint{Date: date(2011, 1, 4), Price: 55},
	)
	index := aligned(
		models.PricePoint{Date: date(2010, 1, 4), Price: 100},
		models.PricePoint{Date: date(2011, 1, 4), Price: 105},
	)

	lbl, err := b.Build(ts, stock, index)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !lbl.Date.Equal(date(2010, 1, 4)) || !lbl.TargetDate.Equal(date(2011, 1, 4)) {
		t.Errorf("dates = %v..%v", lbl.Date, lbl.TargetDate)
	}
	if lbl.Price != 50 || lbl.PriceLater != 55 || lbl.StockPctChange != 10.0 {
		t.Errorf("stock = %v -> %v (%v%%), want 50 -> 55 (10%%)", lbl.Price, lbl.PriceLater, lbl.StockPctChange)
	}
	if lbl.IndexPrice != 100 || lbl.IndexLater != 105 || lbl.IndexPctChange != 5.0 {
		t.Errorf("index = %v -> %v (%v%%), want 100 -> 105 (5%%)", lbl.IndexPrice, lbl.IndexLater, lbl.IndexPctChange)
	}
}

func TestBuildSkipsMissingStockPrice(t *testing.T) {
	b := NewBuilder(DefaultHorizon, time.UTC)
	index := aligned(
		models.PricePoint{Date: date(2009, 1, 1), Price: 100},
		models.PricePoint{Date: date(2012, 1, 1), Price: 120},
	)

	tests := []struct {
		name  string
		stock *series.Aligned
	}{
		{"no data", aligned()},
		{"ends before target", aligned(
			models.PricePoint{Date: date(2010, 1, 1), Price: 10},
			models.PricePoint{Date: date(2010, 12, 31), Price: 11},
		)},
		{"starts after snapshot", aligned(
			models.PricePoint{Date: date(2010, 1, 5), Price: 10},
			models.PricePoint{Date: date(2011, 6, 1), Price: 11},
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(time.Date(2010, 1, 4, 12, 0, 0, 0, time.UTC), tt.stock, index)
			if !errors.Is(err, ErrStockPriceMissing) || !IsSkip(err) {
				t.Errorf("Build() error = %v, want ErrStockPriceMissing", err)
			}
		})
	}
}

func TestBuildZeroStockPrice(t *testing.T) {
	b := NewBuilder(DefaultHorizon, time.UTC)
	stock := aligned(
		models.PricePoint{Date: date(2010, 1, 4), Price: 0},
		models.PricePoint{Date: date(2011, 1, 4), Price: 5},
	)
	index := aligned(
		models.PricePoint{Date: date(2010, 1, 4), Price: 100},
		models.PricePoint{Date: date(2011, 1, 4), Price: 105},
	)
	_, err := b.Build(time.Date(2010, 1, 4, 0, 0, 0, 0, time.UTC), stock, index)
	if !errors.Is(err, ErrStockChangeUndefined) || !IsSkip(err) {
		t.Errorf("Build() error = %v, want ErrStockChangeUndefined", err)
	}
}

func TestBuildMissingIndexIsFatal(t *testing.T) {
	b := NewBuilder(DefaultHorizon, time.UTC)
	stock := aligned(
		models.PricePoint{Date: date(2010, 1, 4), Price: 50},
		models.PricePoint{Date: date(2011, 1, 4), Price: 55},
	)

	for _, index := range []*series.Aligned{
		aligned(),
		aligned(models.PricePoint{Date: date(2010, 1, 4), Price: 100}),
		aligned(
			models.PricePoint{Date: date(2010, 1, 4), Price: 0},
			models.PricePoint{Date: date(2011, 1, 4), Price: 105},
		),
	} {
		_, err := b.Build(time.Date(2010, 1, 4, 0, 0, 0, 0, time.UTC), stock, index)
		if !errors.Is(err, ErrIndexPriceMissing) {
			t.Errorf("Build() error = %v, want ErrIndexPriceMissing", err)
		}
		if IsSkip(err) {
			t.Error("index failure must not be a skip")
		}
	}
}

// The horizon is a fixed offset, so across a leap day the target lands one
// calendar day short of the anniversary.
func TestDatesFixedOffset(t *testing.T) {
	b := NewBuilder(0, time.UTC)
	if b.Horizon() != 31536000*time.Second {
		t.Fatalf("Horizon() = %v, want 31536000s", b.Horizon())
	}

	d0, d1 := b.Dates(time.Date(2011, 6, 1, 10, 0, 0, 0, time.UTC))
	if !d0.Equal(date(2011, 6, 1)) || !d1.Equal(date(2012, 5, 31)) {
		t.Errorf("Dates() = %v, %v; want 2011-06-01, 2012-05-31", d0, d1)
	}

	d0, d1 = b.Dates(time.Date(2010, 1, 4, 9, 30, 0, 0, time.UTC))
	if !d0.Equal(date(2010, 1, 4)) || !d1.Equal(date(2011, 1, 4)) {
		t.Errorf("Dates() = %v, %v; want 2010-01-04, 2011-01-04", d0, d1)
	}
}

func TestDatesUseLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	b := NewBuilder(DefaultHorizon, est)
	// 02:00 UTC on Jan 5 is still Jan 4 in EST.
	d0, _ := b.Dates(time.Date(2010, 1, 5, 2, 0, 0, 0, time.UTC))
	if !d0.Equal(date(2010, 1, 4)) {
		t.Errorf("d0 = %v, want 2010-01-04", d0)
	}
}

func TestPctChange(t *testing.T) {
	tests := []struct {
		now, later float64
		expected   float64
	}{
		{50, 55, 10},
		{100, 105, 5},
		{100, 90, -10},
		{3, 4, 33.33},
		{3, 2, -33.33},
		{7, 7, 0},
		{80, 80.01, 0.01},
		// Binary value just above the decimal tie.
		{4, 4.133, 3.33},
		// Binary value just below the decimal tie.
		{4, 4.343, 8.57},
		{4, 4.617, 15.43},
		// Exact binary ties round to even.
		{800, 801, 0.12},
		{400, 401.5, 0.38},
	}

	for _, tt := range tests {
		if got := PctChange(tt.now, tt.later); got != tt.expected {
			t.Errorf("PctChange(%v, %v) = %v, want %v", tt.now, tt.later, got, tt.expected)
		}
	}
}
