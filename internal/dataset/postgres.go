package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seenimoa/keystats/pkg/models"
)

// DefaultTable is the table PostgresSink writes to.
const DefaultTable = "keystats_rows"

// PostgresSink upserts dataset rows into Postgres, keyed by (ticker, unix).
type PostgresSink struct {
	db     *pgxpool.Pool
	table  string
	logger *slog.Logger
}

// NewPostgresSink connects to dsn and verifies the connection.
func NewPostgresSink(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSink{db: db, table: DefaultTable, logger: logger}, nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Write creates the table if needed and upserts every row in one batch
// inside a transaction.
func (s *PostgresSink) Write(ctx context.Context, ds *models.Dataset, summary *Summary) error {
	start := time.Now()
	table := pgx.Identifier{s.table}.Sanitize()

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createTableSQL(table)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		batch := &pgx.Batch{}
		upsert := upsertSQL(table)
		for _, r := range ds.Rows {
			metrics, err := metricsJSON(ds.Metrics, r.Metrics)
			if err != nil {
				return fmt.Errorf("encode metrics for %s @ %d: %w", r.Ticker, r.Unix, err)
			}
			batch.Queue(upsert,
				summary.RunID, r.Date, r.Unix, r.Ticker,
				r.Price, r.StockPctChange, r.IndexPrice, r.IndexPctChange,
				metrics,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range ds.Rows {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("upsert row: %w", err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return err
	}

	s.logger.Info("rows written to postgres",
		"table", s.table,
		"count", len(ds.Rows),
		"duration", time.Since(start),
	)
	return nil
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
		run_id          uuid             NOT NULL,
		date            date             NOT NULL,
		unix            bigint           NOT NULL,
		ticker          text             NOT NULL,
		price           double precision NOT NULL,
		stock_p_change  double precision NOT NULL,
		sp500           double precision NOT NULL,
		sp500_p_change  double precision NOT NULL,
		metrics         jsonb            NOT NULL,
		PRIMARY KEY (ticker, unix)
	)`
}

func upsertSQL(table string) string {
	return `INSERT INTO ` + table + ` (run_id, date, unix, ticker, price, stock_p_change, sp500, sp500_p_change, metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, unix) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			date = EXCLUDED.date,
			price = EXCLUDED.price,
			stock_p_change = EXCLUDED.stock_p_change,
			sp500 = EXCLUDED.sp500,
			sp500_p_change = EXCLUDED.sp500_p_change,
			metrics = EXCLUDED.metrics`
}

// metricsJSON encodes a metric vector as an object keyed by metric name.
// Missing values encode as null.
func metricsJSON(names []string, values []null.Float) ([]byte, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%d values for %d metrics", len(values), len(names))
	}
	m := make(map[string]null.Float, len(names))
	for i, name := range names {
		m[name] = values[i]
	}
	return json.Marshal(m)
}
