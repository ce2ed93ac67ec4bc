// Package models defines the core data structures shared by the keystats pipeline.
package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// ExtractedRecord holds the metric vector recovered from a single snapshot.
// Values[i] belongs to the i-th metric of the schema that produced it; an
// invalid null.Float marks a metric that was absent or unparseable.
type ExtractedRecord struct {
	Ticker    string       `json:"ticker"`
	Timestamp time.Time    `json:"timestamp"`
	Values    []null.Float `json:"values"`
}

// Present returns how many metrics carry a value.
func (r ExtractedRecord) Present() int {
	n := 0
	for _, v := range r.Values {
		if v.Valid {
			n++
		}
	}
	return n
}
