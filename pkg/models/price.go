package models

import "time"

// PricePoint is a single adjusted close on a calendar date.
// Date is always midnight UTC; see utils.DateOf.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries is a date-indexed price history as loaded, usually holding
// trading days only.
type PriceSeries []PricePoint

// Label carries the forward-looking price fields computed for one snapshot.
type Label struct {
	Date           time.Time `json:"date"`        // calendar date of the snapshot
	TargetDate     time.Time `json:"target_date"` // calendar date one horizon later
	Price          float64   `json:"price"`
	PriceLater     float64   `json:"price_later"`
	StockPctChange float64   `json:"stock_p_change"`
	IndexPrice     float64   `json:"index_price"`
	IndexLater     float64   `json:"index_later"`
	IndexPctChange float64   `json:"index_p_change"`
}
