package processors

import (
	"sort"
	"strings"

	"github.com/mediajenny/the-oracle/src/models"
	"github.com/shopspring/decimal"
)

var (
	revenueWeight = decimal.RequireFromString("0.6")
	roasWeight    = decimal.RequireFromString("0.4")
	neutralScore  = decimal.RequireFromString("0.5")
)

// LineItemFilter narrows a result set. Zero values match everything.
type LineItemFilter struct {
	Search          string
	InsertionOrders []string
	Advertisers     []string
}

// Matches applies a case-insensitive substring search over the identifying
// fields, then exact membership in the insertion order and advertiser lists.
func (f LineItemFilter) Matches(item models.EnrichedLineItem) bool {
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		fields := []string{
			item.LineItemID,
			item.LineItemName,
			item.InsertionOrderID,
			item.InsertionOrderName,
			item.AdvertiserName,
			item.PackageID,
			item.PackageName,
		}
		found := false
		for _, field := range fields {
			if field != "" && strings.Contains(strings.ToLower(field), search) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.InsertionOrders) > 0 && !containsString(f.InsertionOrders, item.InsertionOrderName) {
		return false
	}
	if len(f.Advertisers) > 0 && !containsString(f.Advertisers, item.AdvertiserName) {
		return false
	}
	return true
}

func FilterLineItems(items []models.EnrichedLineItem, filter LineItemFilter) []models.EnrichedLineItem {
	filtered := make([]models.EnrichedLineItem, 0, len(items))
	for _, item := range items {
		if filter.Matches(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// FacetValues lists the sorted distinct insertion order and advertiser names.
func FacetValues(items []models.EnrichedLineItem) models.LineItemFacets {
	orders := make(map[string]struct{})
	advertisers := make(map[string]struct{})
	for _, item := range items {
		if item.InsertionOrderName != "" {
			orders[item.InsertionOrderName] = struct{}{}
		}
		if item.AdvertiserName != "" {
			advertisers[item.AdvertiserName] = struct{}{}
		}
	}
	return models.LineItemFacets{
		InsertionOrders: sortedKeys(orders),
		Advertisers:     sortedKeys(advertisers),
	}
}

// RankLineItems ranks the full result set by revenue, by ROAS and by a
// combined score, then applies the filter and keeps at most topN entries per
// ranking. Ranks are assigned before filtering so they stay global.
// topN <= 0 keeps everything.
func RankLineItems(items []models.EnrichedLineItem, filter LineItemFilter, topN int) models.LineItemRankings {
	var withRevenue, withROAS, withBoth []models.EnrichedLineItem
	for _, item := range items {
		hasRevenue := item.TotalTransactionAmount.IsPositive()
		hasROAS := item.ROAS != nil && item.ROAS.IsPositive()
		if hasRevenue {
			withRevenue = append(withRevenue, item)
		}
		if hasROAS {
			withROAS = append(withROAS, item)
		}
		if hasRevenue && hasROAS {
			withBoth = append(withBoth, item)
		}
	}

	sort.SliceStable(withRevenue, func(i, j int) bool {
		return withRevenue[i].TotalTransactionAmount.GreaterThan(withRevenue[j].TotalTransactionAmount)
	})
	sort.SliceStable(withROAS, func(i, j int) bool {
		return withROAS[i].ROAS.GreaterThan(*withROAS[j].ROAS)
	})

	return models.LineItemRankings{
		ByRevenue: limitRanked(filterRanked(assignRanks(withRevenue, nil), filter), topN),
		ByROAS:    limitRanked(filterRanked(assignRanks(withROAS, nil), filter), topN),
		Combined:  limitRanked(filterRanked(rankCombined(withBoth), filter), topN),
	}
}

// rankCombined scores items as 0.6 x normalised revenue + 0.4 x normalised ROAS
// using min-max normalisation. The maxima are floored at 1 and a flat range
// scores 0.5.
func rankCombined(items []models.EnrichedLineItem) []models.RankedLineItem {
	if len(items) == 0 {
		return []models.RankedLineItem{}
	}

	one := decimal.NewFromInt(1)
	maxRevenue, minRevenue := one, items[0].TotalTransactionAmount
	maxROAS, minROAS := one, *items[0].ROAS
	for _, item := range items {
		maxRevenue = decimal.Max(maxRevenue, item.TotalTransactionAmount)
		minRevenue = decimal.Min(minRevenue, item.TotalTransactionAmount)
		maxROAS = decimal.Max(maxROAS, *item.ROAS)
		minROAS = decimal.Min(minROAS, *item.ROAS)
	}
	revenueRange := maxRevenue.Sub(minRevenue)
	roasRange := maxROAS.Sub(minROAS)

	scores := make([]decimal.Decimal, len(items))
	for i, item := range items {
		normRevenue := neutralScore
		if revenueRange.IsPositive() {
			normRevenue = item.TotalTransactionAmount.Sub(minRevenue).Div(revenueRange)
		}
		normROAS := neutralScore
		if roasRange.IsPositive() {
			normROAS = item.ROAS.Sub(minROAS).Div(roasRange)
		}
		scores[i] = normRevenue.Mul(revenueWeight).Add(normROAS.Mul(roasWeight))
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]].GreaterThan(scores[idx[b]])
	})

	ordered := make([]models.EnrichedLineItem, len(items))
	orderedScores := make([]decimal.Decimal, len(items))
	for pos, i := range idx {
		ordered[pos] = items[i]
		orderedScores[pos] = scores[i]
	}
	return assignRanks(ordered, orderedScores)
}

func assignRanks(items []models.EnrichedLineItem, scores []decimal.Decimal) []models.RankedLineItem {
	ranked := make([]models.RankedLineItem, 0, len(items))
	for i, item := range items {
		entry := models.RankedLineItem{EnrichedLineItem: item, Rank: i + 1}
		if scores != nil {
			score := scores[i]
			entry.CombinedScore = &score
		}
		ranked = append(ranked, entry)
	}
	return ranked
}

func filterRanked(ranked []models.RankedLineItem, filter LineItemFilter) []models.RankedLineItem {
	kept := make([]models.RankedLineItem, 0, len(ranked))
	for _, entry := range ranked {
		if filter.Matches(entry.EnrichedLineItem) {
			kept = append(kept, entry)
		}
	}
	return kept
}

func limitRanked(ranked []models.RankedLineItem, topN int) []models.RankedLineItem {
	if topN > 0 && len(ranked) > topN {
		return ranked[:topN]
	}
	return ranked
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
