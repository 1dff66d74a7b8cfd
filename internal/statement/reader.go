package statement

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column titles of the bank export.
const (
	ColDate        = "Data"
	ColDescription = "Operazione"
	ColAccount     = "Conto o carta"
	ColCategory    = "Categoria"
	ColCurrency    = "Valuta"
	ColAmount      = "Importo"
)

// DefaultHeaderRow: exports carry 18 rows of preamble before the column titles.
const DefaultHeaderRow = 19

var ErrNoSheet = errors.New("workbook has no sheets")

// Cell is a raw spreadsheet value. Numeric cells hold the stored number
// (dates are Excel serials); Date cells hold an ISO 8601 timestamp.
type Cell struct {
	Value   string
	Numeric bool
	Date    bool
}

func (c Cell) Blank() bool {
	return strings.TrimSpace(c.Value) == ""
}

// Row is one data row keyed by header title.
type Row struct {
	Number int // 1-based sheet row
	cells  map[string]Cell
}

func (r Row) Get(col string) Cell {
	return r.cells[col]
}

func (r Row) Has(col string) bool {
	_, ok := r.cells[col]
	return ok
}

func (r Row) empty() bool {
	for _, c := range r.cells {
		if !c.Blank() {
			return false
		}
	}
	return true
}

// Table is the decoded first sheet below the header row.
type Table struct {
	Header   []string
	Rows     []Row
	Date1904 bool // workbook uses the 1904 date system for serials
}

func (t *Table) HasColumn(col string) bool {
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}
	return false
}

// ReadWorkbook decodes the first sheet of an xlsx stream. headerRow is the
// 1-based row holding the column titles; fully blank rows are dropped.
func ReadWorkbook(r io.Reader, headerRow int) (*Table, error) {
	if headerRow < 1 {
		headerRow = DefaultHeaderRow
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) < headerRow {
		return &Table{}, nil
	}

	header := make([]string, len(rows[headerRow-1]))
	for i, h := range rows[headerRow-1] {
		header[i] = strings.TrimSpace(h)
	}

	table := &Table{Header: header}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		table.Date1904 = *props.Date1904
	}
	for i := headerRow; i < len(rows); i++ {
		row := Row{Number: i + 1, cells: make(map[string]Cell, len(header))}
		for col, title := range header {
			if title == "" {
				continue
			}
			var value string
			if col < len(rows[i]) {
				value = rows[i][col]
			}
			cell := Cell{Value: value}
			if value != "" {
				if err := classify(f, sheet, col+1, i+1, &cell); err != nil {
					return nil, err
				}
			}
			row.cells[title] = cell
		}
		if row.empty() {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func classify(f *excelize.File, sheet string, col, row int, cell *Cell) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return fmt.Errorf("cell %s: %w", axis, err)
	}
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		cell.Numeric = true
	case excelize.CellTypeDate:
		cell.Date = true
	}
	return nil
}
