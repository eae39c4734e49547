package saver

import (
	"encoding/csv"
	"fmt"
	"os"

	"vn-data/internal/model"
)

// CSVSaver lưu bảng dưới dạng CSV, giữ nguyên mọi cột (header: table columns).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(t *model.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeTable(f, t, true)
}

func writeTable(f *os.File, t *model.Table, header bool) error {
	w := csv.NewWriter(f)
	if header {
		if err := w.Write(t.Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range t.Rows {
		if err := w.Write(padRow(row, len(t.Columns))); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func padRow(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

// ReadTable reads a CSV file written by this package back into a table.
func ReadTable(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return &model.Table{}, nil
	}
	return &model.Table{Columns: records[0], Rows: records[1:]}, nil
}
