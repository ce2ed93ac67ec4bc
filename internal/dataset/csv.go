package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/seenimoa/keystats/pkg/models"
	"github.com/seenimoa/keystats/pkg/utils"
)

// DefaultMissingMarker is written for metrics that have no value.
const DefaultMissingMarker = "N/A"

// WriteCSV writes the dataset header and rows to w. Missing metrics are
// written as missing, never as zero.
func WriteCSV(w io.Writer, ds *models.Dataset, missing string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	lead := len(models.LeadingColumns)
	rec := make([]string, lead+len(ds.Metrics))
	for i, r := range ds.Rows {
		if len(r.Metrics) != len(ds.Metrics) {
			return fmt.Errorf("row %d (%s): %d metrics, want %d", i, r.Ticker, len(r.Metrics), len(ds.Metrics))
		}
		rec[0] = utils.FormatDate(r.Date)
		rec[1] = strconv.FormatInt(r.Unix, 10)
		rec[2] = r.Ticker
		rec[3] = utils.FormatFloat(r.Price)
		rec[4] = utils.FormatFloat(r.StockPctChange)
		rec[5] = utils.FormatFloat(r.IndexPrice)
		rec[6] = utils.FormatFloat(r.IndexPctChange)
		for j, v := range r.Metrics {
			rec[lead+j] = utils.FormatValue(v, missing)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the dataset to path, creating parent directories.
// The file is written next to its destination and renamed into place, so a
// failed run never leaves a truncated dataset behind.
func WriteCSVFile(path string, ds *models.Dataset, missing string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = WriteCSV(f, ds, missing); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
