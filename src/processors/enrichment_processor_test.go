package processors

import (
	"testing"

	"github.com/mediajenny/the-oracle/src/models"
)

func TestEnrichExampleScenario(t *testing.T) {
	rows := []models.TransactionRow{
		txRow("T1", "100", `[{"LINEITEMID":"L1"},{"LINEITEMID":"L2"}]`, ""),
		txRow("T2", "50", `[{"LINEITEMID":"L1"}]`, ""),
	}
	lookup := []models.NxnLookupRow{
		{LineItemID: "L1", LineItemName: "Line One", AdvertiserInvoice: decPtr("30")},
		{LineItemID: "L3", LineItemName: "Line Three", AdvertiserInvoice: decPtr("10")},
	}

	aggregated := newTestAggregator().Aggregate(rows)
	result := NewLookupEnricher().Enrich(aggregated, lookup)
	got := enrichedByLineItem(result.Results)

	l1 := got["L1"]
	if l1.MatchStatus != models.MatchStatusMatched {
		t.Errorf("L1 status = %q, want matched", l1.MatchStatus)
	}
	if l1.UniqueTransactionCount != 2 {
		t.Errorf("L1 count = %d, want 2", l1.UniqueTransactionCount)
	}
	assertDecimal(t, "L1 total", l1.TotalTransactionAmount, "150")
	if l1.ROAS == nil {
		t.Fatal("L1 ROAS missing")
	}
	assertDecimal(t, "L1 ROAS", *l1.ROAS, "5")
	if l1.LineItemName != "Line One" {
		t.Errorf("L1 name = %q", l1.LineItemName)
	}

	l2 := got["L2"]
	if l2.MatchStatus != models.MatchStatusUnmatched {
		t.Errorf("L2 status = %q, want unmatched", l2.MatchStatus)
	}
	assertDecimal(t, "L2 total", l2.TotalTransactionAmount, "100")
	if l2.ROAS != nil || l2.NxnSpend != nil || l2.LineItemName != "" {
		t.Errorf("unmatched L2 should carry no lookup fields, got %+v", l2)
	}

	if len(result.UnmatchedLookup) != 1 || result.UnmatchedLookup[0].LineItemID != "L3" {
		t.Errorf("unmatched lookup = %+v, want [L3]", result.UnmatchedLookup)
	}
}

func TestMergeLookupRowsSumsNumericFields(t *testing.T) {
	lookup := []models.NxnLookupRow{
		{LineItemID: "L1", AdvertiserInvoice: decPtr("10"), Impressions: decPtr("1000")},
		{LineItemID: "L1", AdvertiserInvoice: decPtr("20"), Impressions: decPtr("500")},
	}

	merged, order := MergeLookupRows(lookup)
	if len(merged) != 1 || len(order) != 1 {
		t.Fatalf("expected one merged row, got %d", len(merged))
	}
	row := merged["L1"]
	assertDecimal(t, "advertiser invoice", *row.AdvertiserInvoice, "30")
	assertDecimal(t, "impressions", *row.Impressions, "1500")

	// the input rows must not be mutated by merging
	assertDecimal(t, "first input invoice", *lookup[0].AdvertiserInvoice, "10")
}

func TestMergeLookupRowsDescriptiveFieldsLastWriteWins(t *testing.T) {
	lookup := []models.NxnLookupRow{
		{LineItemID: "L1", LineItemName: "old", AdvertiserName: "Acme", PackagID: "P-1"},
		{LineItemID: "L1", LineItemName: "new", InsertionOrderName: "IO-9"},
		{LineItemID: "L1", LineItemName: "", PackageID: "P-2"},
	}

	merged, _ := MergeLookupRows(lookup)
	row := merged["L1"]
	if row.LineItemName != "new" {
		t.Errorf("name = %q, want %q", row.LineItemName, "new")
	}
	if row.AdvertiserName != "Acme" {
		t.Errorf("advertiser = %q, blank later rows must not erase it", row.AdvertiserName)
	}
	if row.InsertionOrderName != "IO-9" {
		t.Errorf("io name = %q", row.InsertionOrderName)
	}
	if row.PackageID != "P-2" {
		t.Errorf("package id = %q, want P-2", row.PackageID)
	}
}

func TestMergeLookupRowsPackageIDFallback(t *testing.T) {
	merged, _ := MergeLookupRows([]models.NxnLookupRow{{LineItemID: "L1", PackagID: "PKG-7"}})
	if got := merged["L1"].PackageID; got != "PKG-7" {
		t.Errorf("package id = %q, want fallback PKG-7", got)
	}

	aggregated := []models.AggregatedLineItem{{LineItemID: "L1", UniqueTransactionCount: 1, TotalTransactionAmount: dec("5")}}
	result := NewLookupEnricher().Enrich(aggregated, []models.NxnLookupRow{{LineItemID: "L1", PackagID: "PKG-7"}})
	if result.Results[0].PackageID != "PKG-7" {
		t.Errorf("enriched package id = %q, want PKG-7", result.Results[0].PackageID)
	}
}

func TestEnrichROASNullSafety(t *testing.T) {
	aggregated := []models.AggregatedLineItem{
		{LineItemID: "zero", TotalTransactionAmount: dec("100")},
		{LineItemID: "missing", TotalTransactionAmount: dec("100")},
		{LineItemID: "negative", TotalTransactionAmount: dec("100")},
		{LineItemID: "positive", TotalTransactionAmount: dec("100")},
		{LineItemID: "nolookup", TotalTransactionAmount: dec("100")},
	}
	lookup := []models.NxnLookupRow{
		{LineItemID: "zero", AdvertiserInvoice: decPtr("0")},
		{LineItemID: "missing"},
		{LineItemID: "negative", AdvertiserInvoice: decPtr("-5")},
		{LineItemID: "positive", AdvertiserInvoice: decPtr("40")},
	}

	got := enrichedByLineItem(NewLookupEnricher().Enrich(aggregated, lookup).Results)

	for _, id := range []string{"zero", "missing", "negative", "nolookup"} {
		if got[id].ROAS != nil {
			t.Errorf("%s: ROAS = %s, want absent", id, got[id].ROAS)
		}
	}
	if got["zero"].NxnSpend == nil || !got["zero"].NxnSpend.IsZero() {
		t.Errorf("zero spend should still be reported as NXN Spend 0")
	}
	if got["missing"].NxnSpend != nil {
		t.Errorf("missing spend should stay absent")
	}
	if got["positive"].ROAS == nil {
		t.Fatal("positive spend should produce ROAS")
	}
	assertDecimal(t, "positive ROAS", *got["positive"].ROAS, "2.5")
}

// Every merged lookup row ends up matched or unmatched, never both.
func TestEnrichPartitionsLookupRows(t *testing.T) {
	aggregated := []models.AggregatedLineItem{
		{LineItemID: "A", TotalTransactionAmount: dec("1")},
		{LineItemID: "B", TotalTransactionAmount: dec("1")},
		{LineItemID: "X", TotalTransactionAmount: dec("1")},
	}
	lookup := []models.NxnLookupRow{
		{LineItemID: "A"}, {LineItemID: "C"}, {LineItemID: "A"},
		{LineItemID: "D"}, {LineItemID: "B"}, {LineItemID: "C"},
	}

	result := NewLookupEnricher().Enrich(aggregated, lookup)
	merged, _ := MergeLookupRows(lookup)

	matched := make(map[string]bool)
	for _, item := range result.Results {
		if item.MatchStatus == models.MatchStatusMatched {
			matched[item.LineItemID] = true
		}
	}
	unmatched := make(map[string]int)
	for _, row := range result.UnmatchedLookup {
		unmatched[row.LineItemID]++
	}

	for key := range merged {
		inMatched, inUnmatched := matched[key], unmatched[key] > 0
		if inMatched == inUnmatched {
			t.Errorf("lookup key %s: matched=%v unmatched=%v, want exactly one", key, inMatched, inUnmatched)
		}
		if unmatched[key] > 1 {
			t.Errorf("lookup key %s listed %d times as unmatched", key, unmatched[key])
		}
	}
	if len(result.UnmatchedLookup) != 2 || result.UnmatchedLookup[0].LineItemID != "C" || result.UnmatchedLookup[1].LineItemID != "D" {
		t.Errorf("unmatched order = %+v, want [C D]", result.UnmatchedLookup)
	}
}

func TestEnrichIsDeterministic(t *testing.T) {
	aggregated := []models.AggregatedLineItem{
		{LineItemID: "A", TotalTransactionAmount: dec("10")},
		{LineItemID: "B", TotalTransactionAmount: dec("20")},
	}
	lookup := []models.NxnLookupRow{
		{LineItemID: "B", AdvertiserInvoice: decPtr("3")},
		{LineItemID: "Z", AdvertiserInvoice: decPtr("1")},
		{LineItemID: "Y", AdvertiserInvoice: decPtr("1")},
		{LineItemID: "A", AdvertiserInvoice: decPtr("4")},
	}

	enricher := NewLookupEnricher()
	first := enricher.Enrich(aggregated, lookup)
	for i := 0; i < 10; i++ {
		again := enricher.Enrich(aggregated, lookup)
		for j := range first.Results {
			if first.Results[j].LineItemID != again.Results[j].LineItemID || !first.Results[j].ROAS.Equal(*again.Results[j].ROAS) {
				t.Fatalf("run %d: results differ at %d", i, j)
			}
		}
		for j := range first.UnmatchedLookup {
			if first.UnmatchedLookup[j].LineItemID != again.UnmatchedLookup[j].LineItemID {
				t.Fatalf("run %d: unmatched order differs at %d", i, j)
			}
		}
	}
}
