package models

import "github.com/shopspring/decimal"

// UnknownSourceFile labels revenue from rows that carry no source file name.
const UnknownSourceFile = "Unknown"

// TransactionRow is one raw transaction record after column normalisation.
type TransactionRow struct {
	TransactionID    string          `json:"Transaction ID"`
	TransactionTotal decimal.Decimal `json:"Transaction Total"`
	ImpressionsJSON  string          `json:"Impressions"`    // JSON-encoded impression journey, "" when absent
	SourceFileName   string          `json:"Source File Name,omitempty"`
}

// AttributionPair says "this transaction attributes this amount to this line item".
// Pairs only live for the duration of one aggregation pass.
type AttributionPair struct {
	LineItemID       string
	TransactionID    string
	TransactionTotal decimal.Decimal
}

// SourceFileRevenue is one row of the revenue-by-file breakdown.
type SourceFileRevenue struct {
	SourceFileName string          `json:"Source File Name"`
	TotalAmount    decimal.Decimal `json:"Total Transaction Amount"`
}
