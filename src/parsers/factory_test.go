package parsers

import (
	"errors"
	"strings"
	"testing"

	"github.com/mediajenny/the-oracle/src/parsers/delimited"
	"github.com/mediajenny/the-oracle/src/parsers/spreadsheet"
)

func TestGetParser(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr error
		wantCSV bool
	}{
		{"csv", "transactions.CSV", nil, true},
		{"xlsx", "lookup.xlsx", nil, false},
		{"xlsm", "lookup.xlsm", nil, false},
		{"legacy xls", "old.xls", ErrUnsupportedFormat, false},
		{"unknown", "notes.txt", ErrUnsupportedFormat, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := GetParser(tt.file, FileKindTransaction)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, isCSV := p.(*delimited.Parser)
			_, isXLSX := p.(*spreadsheet.Parser)
			if isCSV != tt.wantCSV || isXLSX == tt.wantCSV {
				t.Errorf("GetParser(%q) returned %T", tt.file, p)
			}
		})
	}
}

func TestLegacyXLSMessage(t *testing.T) {
	_, err := GetParser("report.xls", FileKindNxnLookup)
	if err == nil || !strings.Contains(err.Error(), ".xlsx") {
		t.Errorf("expected a hint to re-save as .xlsx, got %v", err)
	}
}

func TestParseFileKind(t *testing.T) {
	if k, err := ParseFileKind(" NXN_LOOKUP "); err != nil || k != FileKindNxnLookup {
		t.Errorf("ParseFileKind = %q, %v", k, err)
	}
	if _, err := ParseFileKind("invoice"); err == nil {
		t.Error("expected an error for an unknown file type")
	}
}

func TestSpreadsheetOptions(t *testing.T) {
	lookup := spreadsheetOptions(FileKindNxnLookup)
	if lookup.HeaderRow != 1 || lookup.PreferredSheets[0] != "NXN LINE ITEM ID DELIVERY LOOKUP" {
		t.Errorf("unexpected lookup options %+v", lookup)
	}
	tx := spreadsheetOptions(FileKindTransaction)
	if tx.HeaderRow != 0 || tx.PreferredSheets[0] != "DATA" {
		t.Errorf("unexpected transaction options %+v", tx)
	}
}
