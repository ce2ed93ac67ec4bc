// Package series turns sparse trading-day price histories into dense
// calendar-day series so that any date in range resolves to a price.
package series

import (
	"math"
	"slices"
	"time"

	"github.com/seenimoa/keystats/pkg/models"
	"github.com/seenimoa/keystats/pkg/utils"
)

const day = 24 * time.Hour

// Aligned is a gap-free daily price series. The value for a calendar day is
// the price of that day or, on non-trading days, of the latest prior
// trading day. An Aligned is read-only once built and safe to share.
type Aligned struct {
	start  time.Time
	prices []float64
}

// Align densifies a sparse series over [earliest, latest] date inclusive,
// forward-filling missing days. Non-finite prices count as missing days.
// When a date appears more than once the later point wins.
func Align(s models.PriceSeries) *Aligned {
	pts := make([]models.PricePoint, 0, len(s))
	for _, p := range s {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		pts = append(pts, models.PricePoint{Date: utils.DateOf(p.Date), Price: p.Price})
	}
	if len(pts) == 0 {
		return &Aligned{}
	}
	slices.SortStableFunc(pts, func(a, b models.PricePoint) int {
		return a.Date.Compare(b.Date)
	})

	start := pts[0].Date
	n := utils.DaysBetween(start, pts[len(pts)-1].Date) + 1
	prices := make([]float64, n)
	filled := make([]bool, n)
	for _, p := range pts {
		i := utils.DaysBetween(start, p.Date)
		prices[i] = p.Price
		filled[i] = true
	}
	for i := 1; i < n; i++ {
		if !filled[i] {
			prices[i] = prices[i-1]
		}
	}
	return &Aligned{start: start, prices: prices}
}

// At returns the price for a calendar date. ok is false outside the
// series range.
func (a *Aligned) At(date time.Time) (price float64, ok bool) {
	if a == nil || len(a.prices) == 0 {
		return 0, false
	}
	i := utils.DaysBetween(a.start, utils.DateOf(date))
	if i < 0 || i >= len(a.prices) {
		return 0, false
	}
	return a.prices[i], true
}

// Len returns the number of calendar days covered.
func (a *Aligned) Len() int {
	if a == nil {
		return 0
	}
	return len(a.prices)
}

// Empty reports whether the series has no dates.
func (a *Aligned) Empty() bool { return a.Len() == 0 }

// Start returns the first date, or the zero time for an empty series.
func (a *Aligned) Start() time.Time {
	if a.Empty() {
		return time.Time{}
	}
	return a.start
}

// End returns the last date, or the zero time for an empty series.
func (a *Aligned) End() time.Time {
	if a.Empty() {
		return time.Time{}
	}
	return a.start.Add(time.Duration(len(a.prices)-1) * day)
}
