package models

import "github.com/shopspring/decimal"

type MatchStatus string

const (
	MatchStatusMatched   MatchStatus = "matched"
	MatchStatusUnmatched MatchStatus = "unmatched"
)

// NxnLookupRow is one row of the NXN line item delivery lookup.
type NxnLookupRow struct {
	LineItemID         string           `json:"line_item_id"`
	LineItemName       string           `json:"line_item_name,omitempty"`
	AdvertiserName     string           `json:"advertiser_name,omitempty"`
	InsertionOrderID   string           `json:"insertion_order_id,omitempty"`
	InsertionOrderName string           `json:"insertion_order_name,omitempty"`
	PackageID          string           `json:"package_id,omitempty"`
	PackagID           string           `json:"packag_id,omitempty"` // misspelled column found in some NXN exports
	PackageName        string           `json:"package_name,omitempty"`
	Impressions        *decimal.Decimal `json:"impressions,omitempty"`
	AdvertiserInvoice  *decimal.Decimal `json:"advertiser_invoice,omitempty"`
}

// ResolvedPackageID returns package_id, falling back to the packag_id spelling.
func (r NxnLookupRow) ResolvedPackageID() string {
	if r.PackageID != "" {
		return r.PackageID
	}
	return r.PackagID
}

// AggregatedLineItem is one line item after attribution and grouping.
// TotalTransactionAmount counts a transaction once per line item it touches,
// so amounts across line items are not additive. Internal use only.
type AggregatedLineItem struct {
	LineItemID             string          `json:"LINEITEMID"`
	UniqueTransactionCount int             `json:"Unique Transaction Count"`
	TransactionIDs         string          `json:"Transaction IDs"`
	TotalTransactionAmount decimal.Decimal `json:"Total Transaction Amount"`
	MatchStatus            MatchStatus     `json:"Match Status"`
}

// EnrichedLineItem is an aggregated line item joined with its lookup row.
// Lookup fields stay empty for unmatched items.
type EnrichedLineItem struct {
	AggregatedLineItem

	LineItemName       string           `json:"NXN Line Item Name,omitempty"`
	AdvertiserName     string           `json:"Advertiser Name,omitempty"`
	InsertionOrderID   string           `json:"Insertion Order ID,omitempty"`
	InsertionOrderName string           `json:"Insertion Order Name,omitempty"`
	PackageID          string           `json:"Package ID,omitempty"`
	PackageName        string           `json:"Package Name,omitempty"`
	NxnImpressions     *decimal.Decimal `json:"NXN Impressions,omitempty"`
	NxnSpend           *decimal.Decimal `json:"NXN Spend,omitempty"`
	ROAS               *decimal.Decimal `json:"Influenced ROAS (Not Deduplicated),omitempty"`
}

func (e EnrichedLineItem) IsMatched() bool {
	return e.MatchStatus == MatchStatusMatched
}
