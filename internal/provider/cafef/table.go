package cafef

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vn-data/internal/model"
)

// ExtractFirstDateTable returns the first <table> of doc that owns at least one
// cell with a date-shaped value, converted to a table. It returns an empty
// table when nothing qualifies. Cells of nested tables belong to the nested
// table only.
func ExtractFirstDateTable(doc *goquery.Document) *model.Table {
	var found *model.Table
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		rows := ownRows(tbl)
		if !rowsHaveDate(rows) {
			return true
		}
		found = tableFromRows(tbl, rows)
		return false
	})
	if found == nil {
		return &model.Table{}
	}
	return found
}

// ownRows returns the <tr> elements whose nearest enclosing table is tbl.
func ownRows(tbl *goquery.Selection) *goquery.Selection {
	node := tbl.Get(0)
	return tbl.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").Get(0) == node
	})
}

func rowCells(tr *goquery.Selection) *goquery.Selection {
	return tr.ChildrenFiltered("td, th")
}

// cellText returns the whitespace-collapsed text of a cell, ignoring any
// table nested inside it.
func cellText(s *goquery.Selection) string {
	if s.Find("table").Length() > 0 {
		s = s.Clone()
		s.Find("table").Remove()
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}

func rowsHaveDate(rows *goquery.Selection) bool {
	has := false
	rows.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		rowCells(tr).EachWithBreak(func(_ int, td *goquery.Selection) bool {
			has = looksLikeDate(cellText(td))
			return !has
		})
		return !has
	})
	return has
}

func texts(cells *goquery.Selection) []string {
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, cellText(c))
	})
	return out
}

func tableFromRows(tbl *goquery.Selection, rows *goquery.Selection) *model.Table {
	var header []string
	var headerRow *goquery.Selection

	node := tbl.Get(0)
	thead := tbl.Find("thead").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Closest("table").Get(0) == node
	}).First()
	if thead.Length() > 0 {
		if tr := thead.Find("tr").First(); tr.Length() > 0 {
			headerRow = tr
		}
	}
	if headerRow == nil {
		first := rows.First()
		cells := rowCells(first)
		if cells.Length() > 0 && cells.Length() == first.ChildrenFiltered("th").Length() {
			headerRow = first
		}
	}
	if headerRow != nil {
		header = texts(rowCells(headerRow))
	}

	var body [][]string
	width := len(header)
	rows.Each(func(_ int, tr *goquery.Selection) {
		if headerRow != nil && tr.Get(0) == headerRow.Get(0) {
			return
		}
		if thead.Length() > 0 && tr.Closest("thead").Length() > 0 {
			return
		}
		cells := texts(rowCells(tr))
		if len(cells) == 0 {
			return
		}
		body = append(body, cells)
		if header == nil && len(cells) > width {
			width = len(cells)
		}
	})

	t := &model.Table{Columns: columnNames(header, width), Rows: make([][]string, 0, len(body))}
	for _, cells := range body {
		row := make([]string, width)
		copy(row, cells)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// columnNames fills blanks with col_N and de-duplicates names with .1, .2 suffixes.
func columnNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			name = fmt.Sprintf("col_%d", i+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}
