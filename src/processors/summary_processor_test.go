package processors

import (
	"testing"

	"github.com/mediajenny/the-oracle/src/models"
)

func TestSummarize(t *testing.T) {
	results := []models.EnrichedLineItem{
		{
			AggregatedLineItem: models.AggregatedLineItem{LineItemID: "L1", UniqueTransactionCount: 2, TotalTransactionAmount: dec("150"), MatchStatus: models.MatchStatusMatched},
			NxnSpend:           decPtr("30"),
		},
		{
			AggregatedLineItem: models.AggregatedLineItem{LineItemID: "L2", UniqueTransactionCount: 1, TotalTransactionAmount: dec("100"), MatchStatus: models.MatchStatusUnmatched},
		},
	}
	lookup := []models.NxnLookupRow{
		{LineItemID: "L1", AdvertiserInvoice: decPtr("10")},
		{LineItemID: "L1", AdvertiserInvoice: decPtr("20")},
		{LineItemID: "L3", AdvertiserInvoice: decPtr("10")},
		{LineItemID: "L4"},
	}

	stats := Summarize(results, lookup)

	if stats.TotalLineItems != 2 || stats.MatchedLineItems != 1 || stats.UnmatchedLineItems != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", stats.TotalLineItems, stats.MatchedLineItems, stats.UnmatchedLineItems)
	}
	if stats.TotalTransactions != 3 {
		t.Errorf("total transactions = %d, want 3 (not deduplicated)", stats.TotalTransactions)
	}
	assertDecimal(t, "total revenue", stats.TotalRevenue, "250")
	assertDecimal(t, "total spend", stats.TotalSpend, "30")
	assertDecimal(t, "total nxn spend", stats.TotalNxnSpend, "40")
	if stats.OverallROAS == nil {
		t.Fatal("overall ROAS missing")
	}
	assertDecimal(t, "overall ROAS", stats.OverallROAS.Round(4), "8.3333")
}

func TestSummarizeWithoutSpendHasNoROAS(t *testing.T) {
	results := []models.EnrichedLineItem{
		{AggregatedLineItem: models.AggregatedLineItem{LineItemID: "L1", UniqueTransactionCount: 1, TotalTransactionAmount: dec("10"), MatchStatus: models.MatchStatusMatched}, NxnSpend: decPtr("0")},
	}

	stats := Summarize(results, nil)
	if stats.OverallROAS != nil {
		t.Errorf("overall ROAS = %s, want nil", stats.OverallROAS)
	}

	empty := Summarize(nil, nil)
	if empty.TotalLineItems != 0 || empty.OverallROAS != nil || !empty.TotalRevenue.IsZero() {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestRevenueBySourceFile(t *testing.T) {
	rows := []models.TransactionRow{
		txRow("T1", "10", "", "small.csv"),
		txRow("T2", "300", "", "big.csv"),
		txRow("T3", "5", "", ""),
		txRow("T4", "15", "", "small.csv"),
		txRow("T5", "25", "", "tie.csv"),
	}

	got := RevenueBySourceFile(rows)
	want := []struct {
		name  string
		total string
	}{
		{"big.csv", "300"},
		{"small.csv", "25"},
		{"tie.csv", "25"},
		{models.UnknownSourceFile, "5"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d files, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].SourceFileName != w.name {
			t.Errorf("position %d = %q, want %q", i, got[i].SourceFileName, w.name)
		}
		assertDecimal(t, w.name, got[i].TotalAmount, w.total)
	}
}

func TestRevenueBySourceFileUsesDeduplicatedRows(t *testing.T) {
	rows := []models.TransactionRow{
		txRow("T1", "100", `[{"LINEITEMID":"L1"}]`, "fileA.csv"),
		txRow("T1", "100", `[{"LINEITEMID":"L1"}]`, "fileB.csv"),
		txRow("T2", "40", "", "fileB.csv"),
	}

	unique := NewTransactionDeduplicator().Deduplicate(rows)
	got := RevenueBySourceFile(unique)

	totals := make(map[string]string)
	for _, r := range got {
		totals[r.SourceFileName] = r.TotalAmount.String()
	}
	if totals["fileA.csv"] != "100" {
		t.Errorf("fileA = %s, want 100", totals["fileA.csv"])
	}
	if totals["fileB.csv"] != "40" {
		t.Errorf("fileB = %s, want 40 (T1 belongs to fileA)", totals["fileB.csv"])
	}
}
