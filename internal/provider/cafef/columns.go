package cafef

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"vn-data/internal/model"
)

// apiColumns maps PriceHistory.ashx field names to standard names. The order
// is the column order of API tables.
var apiColumns = []struct{ source, name string }{
	{"Ngay", model.ColDate},
	{"GiaMoCua", model.ColOpen},
	{"GiaCaoNhat", model.ColHigh},
	{"GiaThapNhat", model.ColLow},
	{"GiaDongCua", model.ColClose},
	{"GiaDieuChinh", model.ColAdjustedClose},
	{"KhoiLuongKhopLenh", model.ColVolume},
	{"GiaTriKhopLenh", model.ColTradedValue},
	{"KLThoaThuan", model.ColDealVolume},
	{"GtThoaThuan", model.ColDealValue},
	{"ThayDoi", model.ColChange},
}

// headerAliases maps lowercased Vietnamese table headers seen on cafef pages.
var headerAliases = map[string]string{
	"ngày":                 model.ColDate,
	"giá mở cửa":           model.ColOpen,
	"mở cửa":               model.ColOpen,
	"giá cao nhất":         model.ColHigh,
	"cao nhất":             model.ColHigh,
	"giá thấp nhất":        model.ColLow,
	"thấp nhất":            model.ColLow,
	"giá đóng cửa":         model.ColClose,
	"đóng cửa":             model.ColClose,
	"giá điều chỉnh":       model.ColAdjustedClose,
	"khối lượng khớp lệnh": model.ColVolume,
	"kl khớp lệnh":         model.ColVolume,
	"giá trị khớp lệnh":    model.ColTradedValue,
	"gt khớp lệnh":         model.ColTradedValue,
	"kl thỏa thuận":        model.ColDealVolume,
	"kl thoả thuận":        model.ColDealVolume,
	"gt thỏa thuận":        model.ColDealValue,
	"gt thoả thuận":        model.ColDealValue,
	"thay đổi":             model.ColChange,
	"thay đổi (+/-%)":      model.ColChange,
}

var sourceColumns = func() map[string]string {
	m := make(map[string]string, len(apiColumns))
	for _, c := range apiColumns {
		m[c.source] = c.name
	}
	return m
}()

// dateSampleRows is how many leading values are inspected when guessing the date column.
const dateSampleRows = 5

// StandardName returns the standard column name of a source column, or the
// input unchanged when it is not a known cafef field or header.
func StandardName(col string) string {
	if n, ok := sourceColumns[col]; ok {
		return n
	}
	key := strings.ToLower(strings.Join(strings.Fields(col), " "))
	if n, ok := headerAliases[key]; ok {
		return n
	}
	return col
}

// apiRowsTable converts decoded API rows into a table. Known fields come first
// in apiColumns order, unknown fields follow alphabetically.
func apiRowsTable(rows []map[string]any) *model.Table {
	present := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			present[k] = true
		}
	}
	var cols []string
	for _, c := range apiColumns {
		if present[c.source] {
			cols = append(cols, c.source)
			delete(present, c.source)
		}
	}
	extra := make([]string, 0, len(present))
	for k := range present {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	cols = append(cols, extra...)

	t := &model.Table{Columns: cols, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = model.FormatValue(r[c])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Normalize renames columns to standard names, locates the date column,
// parses it day-first, drops rows with unparseable dates and stable-sorts
// ascending. Dates are rewritten as YYYY-MM-DD. A table without any date
// column is returned renamed but otherwise untouched.
func Normalize(t *model.Table, log *slog.Logger) *model.Table {
	if t.Empty() {
		return t
	}
	out := &model.Table{Columns: make([]string, len(t.Columns)), Rows: t.Rows}
	for i, c := range t.Columns {
		out.Columns[i] = StandardName(c)
	}

	di := out.Index(model.ColDate)
	if di < 0 {
		di = detectDateColumn(out)
		if di < 0 {
			log.Warn("no date column found, saving unsorted", "columns", out.Columns)
			return out
		}
		log.Debug("renamed column to date", "column", out.Columns[di])
		out.Columns[di] = model.ColDate
	}

	type dated struct {
		at  time.Time
		row []string
	}
	kept := make([]dated, 0, len(out.Rows))
	for r, row := range out.Rows {
		at, ok := parseDayFirst(out.Cell(r, di))
		if !ok {
			continue
		}
		cp := make([]string, len(out.Columns))
		copy(cp, row)
		cp[di] = at.Format("2006-01-02")
		kept = append(kept, dated{at: at, row: cp})
	}
	if dropped := len(out.Rows) - len(kept); dropped > 0 {
		log.Debug("dropped rows with unparseable date", "rows", dropped)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].at.Before(kept[j].at) })

	out.Rows = make([][]string, len(kept))
	for i, k := range kept {
		out.Rows[i] = k.row
	}
	return out
}

// detectDateColumn returns the first column (left to right) with a
// date-shaped value among its first dateSampleRows values, or -1.
func detectDateColumn(t *model.Table) int {
	n := min(dateSampleRows, len(t.Rows))
	for c := range t.Columns {
		for r := 0; r < n; r++ {
			if looksLikeDate(t.Cell(r, c)) {
				return c
			}
		}
	}
	return -1
}
