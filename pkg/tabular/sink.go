package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Column describes one output column.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Dataset is a named, fully materialised output table.
type Dataset struct {
	Name    string     `json:"name"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Header returns the column names.
func (d *Dataset) Header() []string {
	h := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		h[i] = c.Name
	}
	return h
}

// Sink receives finished datasets.
type Sink interface {
	Write(ctx context.Context, ds *Dataset) error
}

// CSVSink writes a dataset to one CSV file, replacing any previous content.
type CSVSink struct {
	Path string
}

// Write creates missing parent directories and replaces the file atomically.
func (s CSVSink) Write(ctx context.Context, ds *Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(ds.Header()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteAll(ds.Rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.Path, err)
	}
	return nil
}
