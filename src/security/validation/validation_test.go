package validation

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/xuri/excelize/v2"
)

func TestMain(m *testing.M) {
	logger.InitLoggerWithWriter("error", io.Discard)
	os.Exit(m.Run())
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	tests := map[string]string{
		"=SUM(A1)":  "'=SUM(A1)",
		" +cmd":     "' +cmd",
		"@handle":   "'@handle",
		"-5":        "'-5",
		"Acme Corp": "Acme Corp",
		"":          "",
	}
	for in, want := range tests {
		if got := SanitizeForFormulaInjection(in); got != want {
			t.Errorf("SanitizeForFormulaInjection(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"Q3 report (final).csv":   "Q3_report_final_.csv",
		"../../etc/passwd":        "passwd",
		`C:\Users\me\lookup.xlsx`: "lookup.xlsx",
		"...":                     "file",
		"":                        "file",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}

	long := strings.Repeat("a", 300) + ".csv"
	if got := SanitizeFileName(long); len(got) != 120 || !strings.HasSuffix(got, ".csv") {
		t.Errorf("long name not truncated correctly: len=%d %q", len(got), got[len(got)-8:])
	}
}

func TestValidateClientContentType(t *testing.T) {
	for _, ct := range []string{"text/csv", "text/csv; charset=utf-8", xlsxContentType, ""} {
		if err := ValidateClientContentType(ct); err != nil {
			t.Errorf("ValidateClientContentType(%q) returned %v", ct, err)
		}
	}
	if err := ValidateClientContentType("image/png"); err == nil {
		t.Error("expected image/png to be rejected")
	}
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	csv := bytes.NewReader([]byte("Transaction ID,Transaction Total\nT1,10\n"))
	if _, err := ValidateFileContentByMagicBytes(csv, "tx.csv"); err != nil {
		t.Fatalf("CSV rejected: %v", err)
	}
	if pos, _ := csv.Seek(0, io.SeekCurrent); pos != 0 {
		t.Errorf("reader not rewound, at %d", pos)
	}

	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	workbook := bytes.NewReader(buf.Bytes())
	if _, err := ValidateFileContentByMagicBytes(workbook, "lookup.xlsx"); err != nil {
		t.Errorf("workbook rejected: %v", err)
	}

	if _, err := ValidateFileContentByMagicBytes(bytes.NewReader([]byte("plain text")), "lookup.xlsx"); err == nil {
		t.Error("text content with an .xlsx name should be rejected")
	}
	png := []byte("\x89PNG\r\n\x1a\n0000")
	if _, err := ValidateFileContentByMagicBytes(bytes.NewReader(png), "tx.csv"); err == nil {
		t.Error("PNG content should be rejected for a CSV upload")
	}
}

func TestMimeTypeForFile(t *testing.T) {
	if MimeTypeForFile("a.XLSX") != xlsxContentType || MimeTypeForFile("a.csv") != "text/csv" {
		t.Error("unexpected mime type mapping")
	}
}
