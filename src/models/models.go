package models

import "github.com/shopspring/decimal"

func init() {
	// Report documents are consumed by spreadsheets and charts; amounts must be numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// SummaryStats are the headline totals of a report.
// TotalTransactions and TotalRevenue count a transaction once per line item it touches.
type SummaryStats struct {
	TotalLineItems     int              `json:"totalLineItems"`
	MatchedLineItems   int              `json:"matchedLineItems"`
	UnmatchedLineItems int              `json:"unmatchedLineItems"`
	TotalTransactions  int              `json:"totalTransactions"`
	TotalRevenue       decimal.Decimal  `json:"totalRevenue"`
	TotalSpend         decimal.Decimal  `json:"totalSpend"`
	TotalNxnSpend      decimal.Decimal  `json:"totalNxnSpend"`
	OverallROAS        *decimal.Decimal `json:"overallRoas"`
}

// EnrichmentResult is the output of joining aggregated line items with the lookup.
type EnrichmentResult struct {
	Results         []EnrichedLineItem `json:"results"`
	UnmatchedLookup []NxnLookupRow     `json:"unmatchedNxn"`
}

// LineItemReport is the complete line item performance report.
type LineItemReport struct {
	Results       []EnrichedLineItem  `json:"results"`
	UnmatchedNxn  []NxnLookupRow      `json:"unmatchedNxn"`
	Summary       SummaryStats        `json:"summary"`
	RevenueByFile []SourceFileRevenue `json:"revenueByFile"`
}

// EnsureNonNil replaces nil slices so the report serializes to [] rather than null.
func (r *LineItemReport) EnsureNonNil() {
	if r.Results == nil {
		r.Results = []EnrichedLineItem{}
	}
	if r.UnmatchedNxn == nil {
		r.UnmatchedNxn = []NxnLookupRow{}
	}
	if r.RevenueByFile == nil {
		r.RevenueByFile = []SourceFileRevenue{}
	}
}
