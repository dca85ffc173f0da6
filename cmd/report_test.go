package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/parsers"
)

func TestMain(m *testing.M) {
	logger.InitLoggerWithWriter("error", io.Discard)
	os.Exit(m.Run())
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildOfflineReport(t *testing.T) {
	dir := t.TempDir()
	jan := writeTemp(t, dir, "jan.csv", "Transaction ID,Transaction Total,Impressions\n"+
		`T1,100,"[{""LINEITEMID"":""L1""},{""LINEITEMID"":""L2""}]"`+"\n")
	feb := writeTemp(t, dir, "feb.csv", "Transaction ID,Transaction Total,Impressions\n"+
		`T1,100,"[{""LINEITEMID"":""L1""},{""LINEITEMID"":""L2""}]"`+"\n"+
		`T2,40,"[{""LINEITEMID"":""L2""}]"`+"\n")
	lookup := writeTemp(t, dir, "nxn.csv", "line_item_id,line_item_name,impressions,advertiser_invoice\n"+
		"L1,Line One,1000,50\n")

	report, txCount, err := buildOfflineReport(parsers.DefaultNormalizer(), []string{jan, feb}, lookup)
	if err != nil {
		t.Fatalf("buildOfflineReport: %v", err)
	}
	if txCount != 3 {
		t.Errorf("txCount = %d, want 3 rows read", txCount)
	}
	if report.Summary.TotalLineItems != 2 || report.Summary.MatchedLineItems != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}

	var buf bytes.Buffer
	printTopByRevenue(&buf, report.Results, 1)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "L2") || !strings.Contains(lines[1], "140.00") {
		t.Errorf("top by revenue output:\n%s", buf.String())
	}

	if _, _, err := buildOfflineReport(parsers.DefaultNormalizer(), []string{lookup}, lookup); err == nil {
		t.Error("expected an error when a lookup file is passed as transactions")
	}
	if _, _, err := buildOfflineReport(parsers.DefaultNormalizer(), []string{filepath.Join(dir, "missing.csv")}, lookup); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWriteReportToFile(t *testing.T) {
	dir := t.TempDir()
	tx := writeTemp(t, dir, "tx.csv", "Transaction ID,Transaction Total,Impressions\n"+
		`T1,10,"[{""LINEITEMID"":""L1""}]"`+"\n")
	lookup := writeTemp(t, dir, "nxn.csv", "line_item_id,line_item_name,impressions,advertiser_invoice\n"+
		"L1,Line One,10,5\n")

	report, _, err := buildOfflineReport(parsers.DefaultNormalizer(), []string{tx}, lookup)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "report.csv")
	if err := writeReport(io.Discard, out, "csv", report); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "L1") {
		t.Errorf("exported csv missing line item:\n%s", data)
	}
}
