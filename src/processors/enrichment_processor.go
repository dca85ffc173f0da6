package processors

import (
	"github.com/mediajenny/the-oracle/src/models"
	"github.com/shopspring/decimal"
)

type lookupEnricherImpl struct{}

func NewLookupEnricher() LookupEnricher {
	return &lookupEnricherImpl{}
}

// Enrich matches every aggregated line item against the merged lookup and
// returns the merged lookup rows no line item claimed. Unmatched lookup rows
// keep the order in which their ids first appear in the lookup input.
func (e *lookupEnricherImpl) Enrich(aggregated []models.AggregatedLineItem, lookup []models.NxnLookupRow) models.EnrichmentResult {
	merged, order := MergeLookupRows(lookup)

	claimed := make(map[string]struct{}, len(aggregated))
	results := make([]models.EnrichedLineItem, 0, len(aggregated))
	for _, item := range aggregated {
		claimed[item.LineItemID] = struct{}{}

		enriched := models.EnrichedLineItem{AggregatedLineItem: item}
		enriched.MatchStatus = models.MatchStatusUnmatched

		if row, ok := merged[item.LineItemID]; ok {
			enriched.MatchStatus = models.MatchStatusMatched
			enriched.LineItemName = row.LineItemName
			enriched.AdvertiserName = row.AdvertiserName
			enriched.InsertionOrderID = row.InsertionOrderID
			enriched.InsertionOrderName = row.InsertionOrderName
			enriched.PackageID = row.ResolvedPackageID()
			enriched.PackageName = row.PackageName
			enriched.NxnImpressions = copyDecimal(row.Impressions)
			enriched.NxnSpend = copyDecimal(row.AdvertiserInvoice)
			enriched.ROAS = computeROAS(item.TotalTransactionAmount, row.AdvertiserInvoice)
		}
		results = append(results, enriched)
	}

	unmatched := make([]models.NxnLookupRow, 0)
	for _, key := range order {
		if _, ok := claimed[key]; ok {
			continue
		}
		unmatched = append(unmatched, *merged[key])
	}

	return models.EnrichmentResult{Results: results, UnmatchedLookup: unmatched}
}

// MergeLookupRows folds lookup rows sharing a line item id into one row.
// Impressions and advertiser invoice are summed; descriptive fields take the
// last non-blank value. It also returns the keys in first-seen order.
func MergeLookupRows(lookup []models.NxnLookupRow) (map[string]*models.NxnLookupRow, []string) {
	merged := make(map[string]*models.NxnLookupRow, len(lookup))
	var order []string
	for _, row := range lookup {
		existing, ok := merged[row.LineItemID]
		if !ok {
			first := row
			first.PackageID = row.ResolvedPackageID()
			first.Impressions = copyDecimal(row.Impressions)
			first.AdvertiserInvoice = copyDecimal(row.AdvertiserInvoice)
			merged[row.LineItemID] = &first
			order = append(order, row.LineItemID)
			continue
		}

		existing.Impressions = sumOptional(existing.Impressions, row.Impressions)
		existing.AdvertiserInvoice = sumOptional(existing.AdvertiserInvoice, row.AdvertiserInvoice)
		overwriteIfSet(&existing.LineItemName, row.LineItemName)
		overwriteIfSet(&existing.AdvertiserName, row.AdvertiserName)
		overwriteIfSet(&existing.InsertionOrderID, row.InsertionOrderID)
		overwriteIfSet(&existing.InsertionOrderName, row.InsertionOrderName)
		overwriteIfSet(&existing.PackageID, row.ResolvedPackageID())
		overwriteIfSet(&existing.PackagID, row.PackagID)
		overwriteIfSet(&existing.PackageName, row.PackageName)
	}
	return merged, order
}

// computeROAS divides revenue by spend. Missing or non-positive spend has no ROAS.
func computeROAS(revenue decimal.Decimal, spend *decimal.Decimal) *decimal.Decimal {
	if spend == nil || !spend.IsPositive() {
		return nil
	}
	roas := revenue.Div(*spend)
	return &roas
}

func sumOptional(a, b *decimal.Decimal) *decimal.Decimal {
	if a == nil && b == nil {
		return nil
	}
	sum := decimal.Zero
	if a != nil {
		sum = sum.Add(*a)
	}
	if b != nil {
		sum = sum.Add(*b)
	}
	return &sum
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func overwriteIfSet(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
