package tcbs

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"vn-data/internal/model"
	"vn-data/internal/saver"
)

// LatestRatios fetches ratios and maps the first record into the friendly
// snapshot. The provider is assumed to return newest first; the list is not
// re-sorted. found is false when the provider returned no ratios.
func (c *Client) LatestRatios(ctx context.Context, symbol string, yearly bool) (model.RatioSnapshot, bool) {
	ratios := c.Ratios(ctx, symbol, yearly)
	if len(ratios) == 0 {
		return model.RatioSnapshot{}, false
	}
	return Snapshot(symbol, ratios[0]), true
}

// Snapshot maps a TCBS ratio record into the friendly-name schema.
func Snapshot(symbol string, r model.Record) model.RatioSnapshot {
	return model.RatioSnapshot{
		Symbol:          symbol,
		Year:            intField(r, "year"),
		Quarter:         intField(r, "quarter"),
		PE:              floatField(r, "priceToEarning"),
		PB:              floatField(r, "priceToBook"),
		ROE:             floatField(r, "roe"),
		ROA:             floatField(r, "roa"),
		EPS:             floatField(r, "earningPerShare"),
		BVPS:            floatField(r, "bookValuePerShare"),
		Dividend:        floatField(r, "dividend"),
		GrossMargin:     floatField(r, "grossProfitMargin"),
		OperatingMargin: floatField(r, "operatingMargin"),
		NetMargin:       floatField(r, "netProfitMargin"),
		CurrentRatio:    floatField(r, "currentPayment"),
		QuickRatio:      floatField(r, "quickPayment"),
		DebtToEquity:    floatField(r, "equityOnLiability"),
	}
}

func floatField(r model.Record, key string) *float64 {
	var v float64
	switch x := r[key].(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		v = f
	case float64:
		v = x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		v = f
	default:
		return nil
	}
	return &v
}

func intField(r model.Record, key string) *int {
	f := floatField(r, key)
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

// SaveFundamental fetches every category and writes the non-empty ones to
// {outDir}/{symbol}/{category}.csv. Returns category → path, empty when the
// provider had nothing for symbol.
func (c *Client) SaveFundamental(ctx context.Context, symbol, outDir string, yearly bool) (map[string]string, error) {
	f := c.FetchAll(ctx, symbol, yearly)
	if f.Empty() {
		c.log.Info("no fundamental data", "symbol", symbol)
		return map[string]string{}, nil
	}
	return WriteFundamental(f, outDir)
}

// WriteFundamental writes the non-empty categories of f. List categories are
// stable-sorted by (year, quarter) when those fields exist.
func WriteFundamental(f *model.Fundamental, outDir string) (map[string]string, error) {
	dir := filepath.Join(outDir, f.Symbol)
	paths := make(map[string]string)
	for _, cat := range model.Categories {
		recs := f.Category(cat)
		if len(recs) == 0 {
			continue
		}
		if cat != model.CategoryOverview {
			recs = sortByPeriod(recs)
		}
		path := filepath.Join(dir, cat+".csv")
		if err := saver.WriteRecords(path, recs); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths[cat] = path
	}
	return paths, nil
}

// sortByPeriod returns a copy sorted ascending by year then quarter.
// Records without a year keep their relative order at the front.
func sortByPeriod(recs []model.Record) []model.Record {
	hasYear := false
	for _, r := range recs {
		if _, ok := r["year"]; ok {
			hasYear = true
			break
		}
	}
	if !hasYear {
		return recs
	}
	out := make([]model.Record, len(recs))
	copy(out, recs)
	key := func(r model.Record, k string) int {
		if v := intField(r, k); v != nil {
			return *v
		}
		return -1
	}
	sort.SliceStable(out, func(i, j int) bool {
		yi, yj := key(out[i], "year"), key(out[j], "year")
		if yi != yj {
			return yi < yj
		}
		return key(out[i], "quarter") < key(out[j], "quarter")
	})
	return out
}
