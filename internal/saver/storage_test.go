package saver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vn-data/internal/model"
)

func sampleTable() *model.Table {
	return &model.Table{
		Columns: []string{"date", "open", "close", "volume"},
		Rows: [][]string{
			{"2024-01-02", "10", "10.5", "1000"},
			{"2024-01-03", "10.5", "11", "1200"},
			{"2024-01-04", "11", "10.8", "900"},
		},
	}
}

func TestSaveOHLCRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := sampleTable()

	path, err := SaveOHLC(nil, "VIC", in, dir)
	if err != nil {
		t.Fatalf("SaveOHLC: %v", err)
	}
	if want := filepath.Join(dir, "VIC_ohlc.csv"); path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}

	out, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if out.Len() != in.Len() {
		t.Fatalf("rows = %d, want %d", out.Len(), in.Len())
	}
	for i := range in.Rows {
		if out.Rows[i][0] != in.Rows[i][0] {
			t.Errorf("row %d date = %s, want %s", i, out.Rows[i][0], in.Rows[i][0])
		}
	}
}

func TestSaveOHLCOverwrites(t *testing.T) {
	dir := t.TempDir()
	if _, err := SaveOHLC(CSVSaver{}, "VIC", sampleTable(), dir); err != nil {
		t.Fatal(err)
	}
	small := &model.Table{Columns: []string{"date"}, Rows: [][]string{{"2024-02-01"}}}
	path, err := SaveOHLC(CSVSaver{}, "VIC", small, dir)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ReadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 || len(out.Columns) != 1 {
		t.Fatalf("expected overwritten file with 1 row/1 col, got %d rows %v", out.Len(), out.Columns)
	}
}

func TestSaveOHLCJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveOHLC(NewPacketSaver("json"), "ACV", sampleTable(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".json" {
		t.Fatalf("unexpected extension: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var bars []model.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		t.Fatal(err)
	}
	if len(bars) != 3 || bars[1].Close != 11 || bars[1].Volume != 1200 {
		t.Errorf("unexpected bars: %+v", bars)
	}
}

func TestNewPacketSaver(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"csv", "csv"},
		{"", "csv"},
		{" JSON ", "json"},
		{"parquet", "parquet"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			ps := NewPacketSaver(tt.format)
			if ps == nil {
				t.Fatalf("NewPacketSaver(%q) = nil", tt.format)
			}
			if ps.Extension() != tt.ext {
				t.Errorf("extension = %s, want %s", ps.Extension(), tt.ext)
			}
		})
	}
	if NewPacketSaver("xlsx") != nil {
		t.Error("expected nil for unsupported format")
	}
}

func TestAppendRealtimeWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	first := &model.Table{
		Columns: []string{"timestamp", "symbol", "price"},
		Rows:    [][]string{{"2024-01-02T09:00:00Z", "VIC", "41.2"}},
	}
	second := &model.Table{
		Columns: []string{"symbol", "timestamp", "price", "extra"},
		Rows:    [][]string{{"VIC", "2024-01-02T09:01:00Z", "41.3", "x"}},
	}
	if _, err := AppendRealtime("VIC", first, dir); err != nil {
		t.Fatal(err)
	}
	path, err := AppendRealtime("VIC", second, dir)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "timestamp,symbol,price" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "2024-01-02T09:01:00Z,VIC,41.3" {
		t.Errorf("aligned row = %q", lines[2])
	}
}

func TestAppendRealtimeExistingFile(t *testing.T) {
	row := &model.Table{
		Columns: []string{"timestamp", "symbol", "price"},
		Rows:    [][]string{{"2024-01-02T09:00:00Z", "VIC", "41.2"}},
	}
	tests := []struct {
		name     string
		existing string
		wantErr  bool
		want     string
	}{
		{"empty file gets header", "", false, "timestamp,symbol,price\n2024-01-02T09:00:00Z,VIC,41.2\n"},
		{"unreadable header is an error", "\"timestamp,symbol\n", true, "\"timestamp,symbol\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := RealtimePath(dir, "VIC")
			if err := os.WriteFile(path, []byte(tt.existing), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := AppendRealtime("VIC", row, dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("file = %q, want %q", data, tt.want)
			}
		})
	}
}

func TestWriteRecordsColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ACV", "ratios.csv")
	recs := []model.Record{
		{"roe": 0.2, "year": json.Number("2023"), "ticker": "ACV", "quarter": nil},
		{"roe": 0.18, "year": json.Number("2022"), "ticker": "ACV", "pe": 12.5},
	}
	if err := WriteRecords(path, recs); err != nil {
		t.Fatal(err)
	}
	out, err := ReadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ticker", "year", "quarter", "pe", "roe"}
	if strings.Join(out.Columns, ",") != strings.Join(want, ",") {
		t.Fatalf("columns = %v, want %v", out.Columns, want)
	}
	if out.Rows[0][1] != "2023" || out.Rows[0][2] != "" || out.Rows[1][3] != "12.5" {
		t.Errorf("unexpected rows: %v", out.Rows)
	}
}
