package saver

import (
	"strings"

	"vn-data/internal/model"
)

// PacketSaver là abstraction cho lưu một bảng OHLC ra file.
// High-level (app) inject implementation; low-level (fetcher) chỉ phụ thuộc interface.
type PacketSaver interface {
	Save(t *model.Table, path string) error
	Extension() string
}

// NewPacketSaver creates implementation by format (csv, parquet, json).
// Returns nil if format not supported.
func NewPacketSaver(format string) PacketSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}
