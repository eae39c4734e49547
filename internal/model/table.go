package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Standard OHLC column names after normalization.
const (
	ColDate          = "date"
	ColOpen          = "open"
	ColHigh          = "high"
	ColLow           = "low"
	ColClose         = "close"
	ColAdjustedClose = "adjusted_close"
	ColVolume        = "volume"
	ColTradedValue   = "traded_value"
	ColDealVolume    = "deal_volume"
	ColDealValue     = "deal_value"
	ColChange        = "change"
)

// Table is a row-oriented set of string cells with named columns.
// Every historical tier produces one; the CSV saver writes it verbatim.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns row[col] or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Bars converts the table into typed bars. Missing or unparseable numeric
// cells become zero; the conversion never fails.
func (t *Table) Bars() []Bar {
	if t.Empty() {
		return nil
	}
	idx := func(name string) int { return t.Index(name) }
	iDate, iOpen, iHigh, iLow, iClose := idx(ColDate), idx(ColOpen), idx(ColHigh), idx(ColLow), idx(ColClose)
	iAdj, iVol, iVal := idx(ColAdjustedClose), idx(ColVolume), idx(ColTradedValue)
	iDVol, iDVal, iChg := idx(ColDealVolume), idx(ColDealValue), idx(ColChange)

	bars := make([]Bar, 0, len(t.Rows))
	for r := range t.Rows {
		bars = append(bars, Bar{
			Date:          t.Cell(r, iDate),
			Open:          ParseNumber(t.Cell(r, iOpen)),
			High:          ParseNumber(t.Cell(r, iHigh)),
			Low:           ParseNumber(t.Cell(r, iLow)),
			Close:         ParseNumber(t.Cell(r, iClose)),
			AdjustedClose: ParseNumber(t.Cell(r, iAdj)),
			Volume:        int64(ParseNumber(t.Cell(r, iVol))),
			TradedValue:   ParseNumber(t.Cell(r, iVal)),
			DealVolume:    int64(ParseNumber(t.Cell(r, iDVol))),
			DealValue:     ParseNumber(t.Cell(r, iDVal)),
			Change:        t.Cell(r, iChg),
		})
	}
	return bars
}

// ParseNumber parses cafef style numbers ("1,234,500", "25.5", " 12 ").
// Returns 0 when s is not numeric.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatValue renders a decoded JSON value (json.Number, string, float64,
// bool, nil) as a table cell.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
