package model

// Record is one flat fundamental record as returned by the provider
// (keys like ticker, year, quarter, priceToEarning, roe...).
type Record map[string]any

// Fundamental category names, also used as CSV base names.
const (
	CategoryOverview = "overview"
	CategoryRatios   = "ratios"
	CategoryIncome   = "income"
	CategoryBalance  = "balance"
	CategoryCashflow = "cashflow"
)

// Categories lists the fundamental categories in fetch order.
var Categories = []string{CategoryOverview, CategoryRatios, CategoryIncome, CategoryBalance, CategoryCashflow}

// Fundamental groups all fundamental data of one symbol.
// A category that failed to fetch is empty, never nil-vs-empty significant.
type Fundamental struct {
	Symbol   string
	Overview Record
	Ratios   []Record
	Income   []Record
	Balance  []Record
	Cashflow []Record
}

// Category returns the records of the named category. Overview is returned
// as a single-element slice when present.
func (f *Fundamental) Category(name string) []Record {
	switch name {
	case CategoryOverview:
		if len(f.Overview) == 0 {
			return nil
		}
		return []Record{f.Overview}
	case CategoryRatios:
		return f.Ratios
	case CategoryIncome:
		return f.Income
	case CategoryBalance:
		return f.Balance
	case CategoryCashflow:
		return f.Cashflow
	default:
		return nil
	}
}

// Empty reports whether every category is empty.
func (f *Fundamental) Empty() bool {
	for _, c := range Categories {
		if len(f.Category(c)) > 0 {
			return false
		}
	}
	return true
}

// RatioSnapshot is the friendly view of the most recent ratio record.
// Nil fields were absent or null in the source record.
type RatioSnapshot struct {
	Symbol          string
	Year            *int
	Quarter         *int
	PE              *float64
	PB              *float64
	ROE             *float64
	ROA             *float64
	EPS             *float64
	BVPS            *float64
	Dividend        *float64
	GrossMargin     *float64
	OperatingMargin *float64
	NetMargin       *float64
	CurrentRatio    *float64
	QuickRatio      *float64
	DebtToEquity    *float64
}

// Field is a named value of a RatioSnapshot.
type Field struct {
	Name  string
	Value any
}

// Fields returns the snapshot in its fixed friendly-name order, skipping nil values.
func (s RatioSnapshot) Fields() []Field {
	out := []Field{{Name: "symbol", Value: s.Symbol}}
	if s.Year != nil {
		out = append(out, Field{"year", *s.Year})
	}
	if s.Quarter != nil {
		out = append(out, Field{"quarter", *s.Quarter})
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"P/E", s.PE},
		{"P/B", s.PB},
		{"ROE", s.ROE},
		{"ROA", s.ROA},
		{"EPS", s.EPS},
		{"BVPS", s.BVPS},
		{"dividend", s.Dividend},
		{"gross_margin", s.GrossMargin},
		{"operating_margin", s.OperatingMargin},
		{"net_margin", s.NetMargin},
		{"current_ratio", s.CurrentRatio},
		{"quick_ratio", s.QuickRatio},
		{"debt_to_equity", s.DebtToEquity},
	} {
		if f.v != nil {
			out = append(out, Field{f.name, *f.v})
		}
	}
	return out
}
