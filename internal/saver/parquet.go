package saver

import (
	"github.com/parquet-go/parquet-go"

	"vn-data/internal/model"
)

// ParquetSaver lưu bảng dưới dạng Parquet (schema của model.Bar).
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(t *model.Table, path string) error {
	return parquet.WriteFile(path, t.Bars())
}
