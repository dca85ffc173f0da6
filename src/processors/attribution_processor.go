package processors

import (
	"sort"
	"strings"

	"github.com/mediajenny/the-oracle/src/models"
	"github.com/shopspring/decimal"
)

const transactionIDSeparator = ", "

type attributionAggregatorImpl struct {
	extractor LineItemExtractor
}

func NewAttributionAggregator(extractor LineItemExtractor) AttributionAggregator {
	return &attributionAggregatorImpl{extractor: extractor}
}

// Expand emits one pair per distinct line item referenced by each row.
// Rows whose journey yields no line items emit nothing.
func (a *attributionAggregatorImpl) Expand(rows []models.TransactionRow) []models.AttributionPair {
	var pairs []models.AttributionPair
	for _, row := range rows {
		for _, lineItemID := range a.extractor.Extract(row.ImpressionsJSON) {
			pairs = append(pairs, models.AttributionPair{
				LineItemID:       lineItemID,
				TransactionID:    row.TransactionID,
				TransactionTotal: row.TransactionTotal,
			})
		}
	}
	return pairs
}

type lineItemGroup struct {
	transactionIDs map[string]struct{}
	total          decimal.Decimal
}

// Aggregate groups attribution pairs by line item. The total is summed over
// every pair, so a transaction touching N line items counts fully toward each
// of them. Line items are returned in order of first attribution.
func (a *attributionAggregatorImpl) Aggregate(rows []models.TransactionRow) []models.AggregatedLineItem {
	pairs := a.Expand(rows)
	if len(pairs) == 0 {
		return []models.AggregatedLineItem{}
	}

	groups := make(map[string]*lineItemGroup)
	var order []string
	for _, pair := range pairs {
		group, ok := groups[pair.LineItemID]
		if !ok {
			group = &lineItemGroup{transactionIDs: make(map[string]struct{}), total: decimal.Zero}
			groups[pair.LineItemID] = group
			order = append(order, pair.LineItemID)
		}
		group.transactionIDs[pair.TransactionID] = struct{}{}
		group.total = group.total.Add(pair.TransactionTotal)
	}

	aggregated := make([]models.AggregatedLineItem, 0, len(order))
	for _, lineItemID := range order {
		group := groups[lineItemID]
		ids := make([]string, 0, len(group.transactionIDs))
		for id := range group.transactionIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		aggregated = append(aggregated, models.AggregatedLineItem{
			LineItemID:             lineItemID,
			UniqueTransactionCount: len(ids),
			TransactionIDs:         strings.Join(ids, transactionIDSeparator),
			TotalTransactionAmount: group.total,
			MatchStatus:            models.MatchStatusUnmatched,
		})
	}
	return aggregated
}
