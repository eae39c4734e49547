package saver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"vn-data/internal/model"
)

// OHLCPath returns {outDir}/{symbol}_ohlc.{ext}.
func OHLCPath(outDir, symbol, ext string) string {
	return filepath.Join(outDir, fmt.Sprintf("%s_ohlc.%s", symbol, ext))
}

// RealtimePath returns {outDir}/{symbol}_realtime.csv.
func RealtimePath(outDir, symbol string) string {
	return filepath.Join(outDir, symbol+"_realtime.csv")
}

// SaveOHLC writes the historical table of symbol, overwriting any previous file.
// A nil saver means CSV.
func SaveOHLC(ps PacketSaver, symbol string, t *model.Table, outDir string) (string, error) {
	if ps == nil {
		ps = CSVSaver{}
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create dir %s: %w", outDir, err)
	}
	path := OHLCPath(outDir, symbol, ps.Extension())
	if err := ps.Save(t, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// AppendRealtime appends the rows of t to {outDir}/{symbol}_realtime.csv.
// The first write creates the file with t's header; later writes are headerless
// and values are aligned to the header already on disk (unknown columns dropped).
func AppendRealtime(symbol string, t *model.Table, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create dir %s: %w", outDir, err)
	}
	path := RealtimePath(outDir, symbol)

	header, err := readHeader(path)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if header == nil {
		return path, writeTable(f, t, true)
	}
	return path, writeTable(f, align(t, header), false)
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		// empty file: treat as new
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	return header, nil
}

func align(t *model.Table, header []string) *model.Table {
	out := &model.Table{Columns: header, Rows: make([][]string, 0, len(t.Rows))}
	for r := range t.Rows {
		row := make([]string, len(header))
		for i, c := range header {
			row[i] = t.Cell(r, t.Index(c))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// WriteRecords writes fundamental records to path as CSV. Columns are
// ticker, year, quarter (when present) then the remaining keys alphabetically.
func WriteRecords(path string, records []model.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeTable(f, RecordsTable(records), true)
}

var leadingRecordColumns = []string{"ticker", "year", "quarter"}

// RecordsTable flattens records into a table over the union of their keys.
func RecordsTable(records []model.Record) *model.Table {
	seen := make(map[string]bool)
	var rest []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	var cols []string
	for _, c := range leadingRecordColumns {
		if seen[c] {
			cols = append(cols, c)
			delete(seen, c)
		}
	}
	sort.Strings(rest)
	for _, c := range rest {
		if seen[c] {
			cols = append(cols, c)
		}
	}

	t := &model.Table{Columns: cols, Rows: make([][]string, 0, len(records))}
	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = model.FormatValue(rec[c])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
