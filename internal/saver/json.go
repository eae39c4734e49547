package saver

import (
	"encoding/json"
	"os"

	"vn-data/internal/model"
)

// JSONSaver lưu bảng dưới dạng JSON array of bars (indent).
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(t *model.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bars := t.Bars()
	if bars == nil {
		bars = []model.Bar{}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(bars)
}
