package processors

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mediajenny/the-oracle/src/models"
)

func TestReportProcessorEndToEnd(t *testing.T) {
	transactions := []models.TransactionRow{
		txRow("T1", "100", `[{"LINEITEMID":"L1"},{"LINEITEMID":"L2"}]`, "fileA.csv"),
		txRow("T2", "50", `[{"LINEITEMID":"L1"}]`, "fileA.csv"),
		txRow("T1", "100", `[{"LINEITEMID":"L1"},{"LINEITEMID":"L2"}]`, "fileB.csv"),
		txRow("T3", "25", `garbage`, "fileB.csv"),
	}
	lookup := []models.NxnLookupRow{
		{LineItemID: "L1", AdvertiserInvoice: decPtr("10")},
		{LineItemID: "L1", AdvertiserInvoice: decPtr("20")},
		{LineItemID: "L3", AdvertiserInvoice: decPtr("10")},
	}

	report := NewReportProcessor(discardLogger()).Process(transactions, lookup)

	got := enrichedByLineItem(report.Results)
	if len(got) != 2 {
		t.Fatalf("got %d line items, want 2", len(got))
	}
	assertDecimal(t, "L1 total", got["L1"].TotalTransactionAmount, "150")
	assertDecimal(t, "L1 spend", *got["L1"].NxnSpend, "30")
	assertDecimal(t, "L1 ROAS", *got["L1"].ROAS, "5")
	if got["L2"].MatchStatus != models.MatchStatusUnmatched {
		t.Errorf("L2 should be unmatched")
	}

	if len(report.UnmatchedNxn) != 1 || report.UnmatchedNxn[0].LineItemID != "L3" {
		t.Errorf("unmatched = %+v, want [L3]", report.UnmatchedNxn)
	}

	assertDecimal(t, "total revenue", report.Summary.TotalRevenue, "250")
	assertDecimal(t, "total nxn spend", report.Summary.TotalNxnSpend, "40")

	if len(report.RevenueByFile) != 2 {
		t.Fatalf("revenue by file = %+v", report.RevenueByFile)
	}
	// T3 has no attribution but still counts toward its file
	assertDecimal(t, "fileA", report.RevenueByFile[0].TotalAmount, "150")
	assertDecimal(t, "fileB", report.RevenueByFile[1].TotalAmount, "25")
}

func TestReportProcessorEmptyInput(t *testing.T) {
	report := NewReportProcessor(discardLogger()).Process(nil, nil)

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"results":[]`, `"unmatchedNxn":[]`, `"revenueByFile":[]`, `"overallRoas":null`} {
		if !strings.Contains(body, want) {
			t.Errorf("report JSON %s missing %s", body, want)
		}
	}
}

func TestReportJSONUsesNumbersAndColumnNames(t *testing.T) {
	transactions := []models.TransactionRow{txRow("T1", "12.5", `[{"LINEITEMID":"L1"}]`, "a.csv")}
	lookup := []models.NxnLookupRow{{LineItemID: "L1", LineItemName: "Name", AdvertiserInvoice: decPtr("5")}}

	raw, err := json.Marshal(NewReportProcessor(discardLogger()).Process(transactions, lookup))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, want := range []string{
		`"LINEITEMID":"L1"`,
		`"Total Transaction Amount":12.5`,
		`"NXN Spend":5`,
		`"Influenced ROAS (Not Deduplicated)":2.5`,
		`"Match Status":"matched"`,
		`"NXN Line Item Name":"Name"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("report JSON missing %s\n%s", want, body)
		}
	}
}
