// Package datasource reads the pipeline inputs produced by the retrieval
// step: the snapshot directory tree and the stock and index price tables.
package datasource

import (
	"context"
	"errors"
)

// SnapshotStore gives read access to per-ticker snapshot documents.
// Implementations must be safe for concurrent use.
type SnapshotStore interface {
	// Tickers lists the tickers that have snapshots, sorted.
	Tickers(ctx context.Context) ([]string, error)

	// List returns the entry names of a ticker's snapshots, sorted.
	// Names are returned unparsed; callers validate the timestamp pattern.
	List(ctx context.Context, ticker string) ([]string, error)

	// Read returns the content of one snapshot.
	Read(ctx context.Context, ticker, name string) (string, error)
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker has no snapshot directory.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrNoDateColumn is returned when a price table has no usable date column.
var ErrNoDateColumn = errors.New("price table has no date column")

// ErrColumnNotFound is returned when a requested price column is absent.
var ErrColumnNotFound = errors.New("price column not found")

// ErrEmptyTable is returned when a price table has a header but no rows.
var ErrEmptyTable = errors.New("price table has no rows")
