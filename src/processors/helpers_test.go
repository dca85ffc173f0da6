package processors

import (
	"io"
	"log/slog"
	"testing"

	"github.com/mediajenny/the-oracle/src/models"
	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func txRow(id, total, impressions, file string) models.TransactionRow {
	return models.TransactionRow{
		TransactionID:    id,
		TransactionTotal: dec(total),
		ImpressionsJSON:  impressions,
		SourceFileName:   file,
	}
}

func newTestAggregator() AttributionAggregator {
	return NewAttributionAggregator(NewLineItemExtractor(discardLogger()))
}

func byLineItem(items []models.AggregatedLineItem) map[string]models.AggregatedLineItem {
	out := make(map[string]models.AggregatedLineItem, len(items))
	for _, item := range items {
		out[item.LineItemID] = item
	}
	return out
}

func enrichedByLineItem(items []models.EnrichedLineItem) map[string]models.EnrichedLineItem {
	out := make(map[string]models.EnrichedLineItem, len(items))
	for _, item := range items {
		out[item.LineItemID] = item
	}
	return out
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}
