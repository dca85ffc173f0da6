package processors

import (
	"github.com/mediajenny/the-oracle/src/models"
)

// LineItemExtractor pulls the line item ids referenced by one impression journey.
type LineItemExtractor interface {
	Extract(impressionsJSON string) []string
}

// TransactionDeduplicator collapses rows that share a transaction id.
type TransactionDeduplicator interface {
	Deduplicate(rows []models.TransactionRow) []models.TransactionRow
}

// AttributionAggregator fans transactions out to line items and groups them.
type AttributionAggregator interface {
	Expand(rows []models.TransactionRow) []models.AttributionPair
	Aggregate(rows []models.TransactionRow) []models.AggregatedLineItem
}

// LookupEnricher joins aggregated line items against the NXN lookup.
type LookupEnricher interface {
	Enrich(aggregated []models.AggregatedLineItem, lookup []models.NxnLookupRow) models.EnrichmentResult
}

// ReportProcessor runs the whole reconciliation pipeline.
type ReportProcessor interface {
	Process(transactions []models.TransactionRow, lookup []models.NxnLookupRow) models.LineItemReport
}
