package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVFile is a RowAPI backed by a single CSV file on disk. Rewrites go
// through a temp file + rename so a failed write never corrupts the sheet.
type CSVFile struct {
	path string
}

// NewCSVFile returns a CSV-backed row store at path. The file is created
// lazily on first write.
func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

func (c *CSVFile) readAll() ([][]string, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", c.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.path, err)
	}
	return rows, nil
}

func (c *CSVFile) writeAll(rows [][]string) error {
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".sheet-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", c.path, err)
	}
	return nil
}

func (c *CSVFile) LoadAllRows(_ context.Context) ([][]string, error) {
	return c.readAll()
}

func (c *CSVFile) AppendRow(_ context.Context, values []string) error {
	rows, err := c.readAll()
	if err != nil {
		return err
	}
	return c.writeAll(append(rows, values))
}

func (c *CSVFile) UpdateRow(_ context.Context, index int, values []string) error {
	rows, err := c.readAll()
	if err != nil {
		return err
	}
	if index < 1 || index > len(rows) {
		return fmt.Errorf("row index %d out of range", index)
	}
	rows[index-1] = values
	return c.writeAll(rows)
}

func (c *CSVFile) ReplaceAll(_ context.Context, header []string, rows [][]string) error {
	all := make([][]string, 0, len(rows)+1)
	all = append(all, header)
	all = append(all, rows...)
	return c.writeAll(all)
}

func (c *CSVFile) Clear(_ context.Context) error {
	return c.writeAll(nil)
}
