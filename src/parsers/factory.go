package parsers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mediajenny/the-oracle/src/parsers/delimited"
	"github.com/mediajenny/the-oracle/src/parsers/spreadsheet"
)

// Workbook layout conventions. Transaction exports keep their rows on a
// DATA sheet; the NXN lookup has a title row above its header.
var (
	transactionSheets = []string{"DATA"}
	lookupSheets      = []string{
		"NXN LINE ITEM ID DELIVERY LOOKUP",
		"NXN LINE ITEM ID DELIVERY LOOKU", // Excel truncates sheet names to 31 chars
		"Programmatic",
	}
)

const lookupHeaderRow = 1

// GetParser picks a parser from the file extension. Legacy .xls files are
// rejected.
func GetParser(fileName string, kind FileKind) (Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return delimited.NewParser(), nil
	case ".xlsx", ".xlsm":
		return spreadsheet.NewParser(spreadsheetOptions(kind)), nil
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbooks are not supported, save the file as .xlsx", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: no parser available for extension %q", ErrUnsupportedFormat, ext)
	}
}

func spreadsheetOptions(kind FileKind) spreadsheet.Options {
	if kind == FileKindNxnLookup {
		return spreadsheet.Options{PreferredSheets: lookupSheets, HeaderRow: lookupHeaderRow}
	}
	return spreadsheet.Options{PreferredSheets: transactionSheets}
}
