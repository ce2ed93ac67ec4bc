package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/seenimoa/keystats/pkg/utils"
)

// Dir is a SnapshotStore over a directory laid out as
// <root>/<ticker>/<YYYYMMDDHHMMSS>.html. Hidden entries are ignored.
type Dir struct {
	root string
}

// NewDir creates a store rooted at root. The directory must exist.
func NewDir(root string) (*Dir, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("snapshot root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("snapshot root %s: not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Root returns the store's root directory.
func (d *Dir) Root() string { return d.root }

// Tickers lists the ticker subdirectories.
func (d *Dir) Tickers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	var tickers []string
	for _, e := range entries {
		if e.IsDir() && !utils.IsHidden(e.Name()) {
			tickers = append(tickers, e.Name())
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

// List returns the visible file names in a ticker directory.
func (d *Dir) List(ctx context.Context, ticker string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.tickerDir(ticker))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", ticker, ErrTickerNotFound)
		}
		return nil, fmt.Errorf("list %s: %w", ticker, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && !utils.IsHidden(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read loads one snapshot file.
func (d *Dir) Read(ctx context.Context, ticker, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("read %s/%s: invalid snapshot name", ticker, name)
	}
	b, err := os.ReadFile(filepath.Join(d.tickerDir(ticker), name))
	if err != nil {
		return "", fmt.Errorf("read %s/%s: %w", ticker, name, err)
	}
	return string(b), nil
}

func (d *Dir) tickerDir(ticker string) string {
	return filepath.Join(d.root, filepath.Base(ticker))
}
