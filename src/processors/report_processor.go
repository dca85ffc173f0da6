package processors

import (
	"log/slog"

	"github.com/mediajenny/the-oracle/src/models"
)

type reportProcessorImpl struct {
	deduplicator TransactionDeduplicator
	aggregator   AttributionAggregator
	enricher     LookupEnricher
}

// NewReportProcessor wires the default pipeline stages.
func NewReportProcessor(log *slog.Logger) ReportProcessor {
	return &reportProcessorImpl{
		deduplicator: NewTransactionDeduplicator(),
		aggregator:   NewAttributionAggregator(NewLineItemExtractor(log)),
		enricher:     NewLookupEnricher(),
	}
}

// Process deduplicates, attributes, enriches and summarizes. Empty input
// produces an empty report; rejecting it is up to the caller.
func (p *reportProcessorImpl) Process(transactions []models.TransactionRow, lookup []models.NxnLookupRow) models.LineItemReport {
	unique := p.deduplicator.Deduplicate(transactions)
	aggregated := p.aggregator.Aggregate(unique)
	enrichment := p.enricher.Enrich(aggregated, lookup)

	report := models.LineItemReport{
		Results:       enrichment.Results,
		UnmatchedNxn:  enrichment.UnmatchedLookup,
		Summary:       Summarize(enrichment.Results, lookup),
		RevenueByFile: RevenueBySourceFile(unique),
	}
	report.EnsureNonNil()
	return report
}
