package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bbb", "20100104093000.html"), "<td>Beta</td>")
	writeFile(t, filepath.Join(root, "aaa", "20110104093000.html"), "later")
	writeFile(t, filepath.Join(root, "aaa", "20100104093000.html"), "earlier")
	writeFile(t, filepath.Join(root, "aaa", ".DS_Store"), "")
	writeFile(t, filepath.Join(root, ".DS_Store"), "")
	writeFile(t, filepath.Join(root, "README"), "not a ticker")
	if err := os.MkdirAll(filepath.Join(root, "aaa", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir() error: %v", err)
	}
	ctx := context.Background()

	tickers, err := d.Tickers(ctx)
	if err != nil {
		t.Fatalf("Tickers() error: %v", err)
	}
	if !reflect.DeepEqual(tickers, []string{"aaa", "bbb"}) {
		t.Errorf("Tickers() = %v, want [aaa bbb]", tickers)
	}

	names, err := d.List(ctx, "aaa")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"20100104093000.html", "20110104093000.html"}) {
		t.Errorf("List(aaa) = %v", names)
	}

	content, err := d.Read(ctx, "aaa", "20100104093000.html")
	if err != nil || content != "earlier" {
		t.Errorf("Read() = %q, %v", content, err)
	}
}

func TestDirErrors(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir() error: %v", err)
	}
	ctx := context.Background()

	if _, err := d.List(ctx, "missing"); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("List(missing) error = %v, want ErrTickerNotFound", err)
	}
	if _, err := d.Read(ctx, "missing", "20100104093000.html"); err == nil {
		t.Error("expected error reading missing file")
	}
	if _, err := d.Read(ctx, "aaa", "../../etc/passwd"); err == nil {
		t.Error("expected error for path traversal")
	}

	if _, err := NewDir(filepath.Join(root, "nope")); err == nil {
		t.Error("expected error for missing root")
	}
	file := filepath.Join(root, "file")
	writeFile(t, file, "")
	if _, err := NewDir(file); err == nil {
		t.Error("expected error for file root")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := d.Tickers(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Tickers(cancelled) error = %v", err)
	}
}
