package models

import "github.com/shopspring/decimal"

// RankedLineItem is an enriched line item with its 1-based position in a ranking.
type RankedLineItem struct {
	EnrichedLineItem
	Rank          int              `json:"rank"`
	CombinedScore *decimal.Decimal `json:"combinedScore,omitempty"`
}

// LineItemRankings holds the three leaderboards shown on a report.
type LineItemRankings struct {
	ByRevenue []RankedLineItem `json:"rankedByRevenue"`
	ByROAS    []RankedLineItem `json:"rankedByROAS"`
	Combined  []RankedLineItem `json:"rankedByCombined"`
}

// LineItemFacets are the distinct filter values present in a result set.
type LineItemFacets struct {
	InsertionOrders []string `json:"insertionOrders"`
	Advertisers     []string `json:"advertisers"`
}
