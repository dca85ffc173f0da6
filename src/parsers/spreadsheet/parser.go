package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/mediajenny/the-oracle/src/models"
	"github.com/xuri/excelize/v2"
)

// Options selects the sheet and header row to read.
type Options struct {
	// PreferredSheets are tried in order (case-insensitive). The first
	// sheet of the workbook is used when none match.
	PreferredSheets []string
	// HeaderRow is the zero-based row index holding the column names.
	HeaderRow int
}

type Parser struct {
	opts Options
}

func NewParser(opts Options) *Parser {
	if opts.HeaderRow < 0 {
		opts.HeaderRow = 0
	}
	return &Parser{opts: opts}
}

func (p *Parser) Parse(r io.Reader) (*models.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := p.selectSheet(f.GetSheetList())
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) <= p.opts.HeaderRow {
		return nil, fmt.Errorf("sheet %q has no header row at line %d", sheet, p.opts.HeaderRow+1)
	}

	headers := make([]string, len(rows[p.opts.HeaderRow]))
	for i, h := range rows[p.opts.HeaderRow] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &models.RawTable{Sheet: sheet, Headers: headers, Rows: []map[string]any{}}
	for _, record := range rows[p.opts.HeaderRow+1:] {
		if isEmptyRow(record) {
			continue
		}
		row := make(map[string]any, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				row[h] = nil
				continue
			}
			row[h] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func (p *Parser) selectSheet(sheets []string) string {
	for _, want := range p.opts.PreferredSheets {
		for _, name := range sheets {
			if strings.EqualFold(strings.TrimSpace(name), want) {
				return name
			}
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
