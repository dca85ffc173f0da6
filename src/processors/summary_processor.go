package processors

import (
	"sort"

	"github.com/mediajenny/the-oracle/src/models"
	"github.com/shopspring/decimal"
)

// Summarize reduces enriched results to report totals. TotalNxnSpend is taken
// from the raw lookup rows, matched or not, so it can be checked against the
// lookup file independently of matching.
func Summarize(results []models.EnrichedLineItem, lookup []models.NxnLookupRow) models.SummaryStats {
	stats := models.SummaryStats{
		TotalLineItems: len(results),
		TotalRevenue:   decimal.Zero,
		TotalSpend:     decimal.Zero,
		TotalNxnSpend:  decimal.Zero,
	}

	for _, item := range results {
		if item.IsMatched() {
			stats.MatchedLineItems++
		} else {
			stats.UnmatchedLineItems++
		}
		stats.TotalTransactions += item.UniqueTransactionCount
		stats.TotalRevenue = stats.TotalRevenue.Add(item.TotalTransactionAmount)
		if item.NxnSpend != nil {
			stats.TotalSpend = stats.TotalSpend.Add(*item.NxnSpend)
		}
	}

	for _, row := range lookup {
		if row.AdvertiserInvoice != nil {
			stats.TotalNxnSpend = stats.TotalNxnSpend.Add(*row.AdvertiserInvoice)
		}
	}

	stats.OverallROAS = computeROAS(stats.TotalRevenue, &stats.TotalSpend)
	return stats
}

// RevenueBySourceFile sums transaction totals per source file, largest first.
// Files with equal totals keep the order in which they first appear.
func RevenueBySourceFile(rows []models.TransactionRow) []models.SourceFileRevenue {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, row := range rows {
		name := row.SourceFileName
		if name == "" {
			name = models.UnknownSourceFile
		}
		current, ok := totals[name]
		if !ok {
			order = append(order, name)
			current = decimal.Zero
		}
		totals[name] = current.Add(row.TransactionTotal)
	}

	breakdown := make([]models.SourceFileRevenue, 0, len(order))
	for _, name := range order {
		breakdown = append(breakdown, models.SourceFileRevenue{SourceFileName: name, TotalAmount: totals[name]})
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].TotalAmount.GreaterThan(breakdown[j].TotalAmount)
	})
	return breakdown
}
