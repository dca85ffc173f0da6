package exporters

import (
	"fmt"
	"strings"

	"github.com/mediajenny/the-oracle/src/models"
	"github.com/mediajenny/the-oracle/src/security/validation"
)

// Format is a download format for the line item table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName builds the download name for a report export.
func FileName(reportName string, f Format) string {
	return fmt.Sprintf("%s-line-item-performance.%s", validation.SanitizeFileName(reportName), f)
}

type column struct {
	header string
	width  float64
	value  func(models.EnrichedLineItem) any
}

// lineItemColumns is the export column order. Values are string, int or
// *decimal.Decimal (nil renders empty).
var lineItemColumns = []column{
	{"Advertiser Name", 20, func(e models.EnrichedLineItem) any { return e.AdvertiserName }},
	{"Insertion Order ID", 20, func(e models.EnrichedLineItem) any { return e.InsertionOrderID }},
	{"Insertion Order Name", 30, func(e models.EnrichedLineItem) any { return e.InsertionOrderName }},
	{"Package ID", 15, func(e models.EnrichedLineItem) any { return e.PackageID }},
	{"Package Name", 25, func(e models.EnrichedLineItem) any { return e.PackageName }},
	{"LINEITEMID", 20, func(e models.EnrichedLineItem) any { return e.LineItemID }},
	{"NXN Line Item Name", 40, func(e models.EnrichedLineItem) any { return e.LineItemName }},
	{"Unique Transaction Count", 25, func(e models.EnrichedLineItem) any { return e.UniqueTransactionCount }},
	{"Total Transaction Amount", 25, func(e models.EnrichedLineItem) any {
		d := e.TotalTransactionAmount
		return &d
	}},
	{"NXN Impressions", 20, func(e models.EnrichedLineItem) any { return e.NxnImpressions }},
	{"NXN Spend", 15, func(e models.EnrichedLineItem) any { return e.NxnSpend }},
	{"Influenced ROAS (Not Deduplicated)", 35, func(e models.EnrichedLineItem) any { return e.ROAS }},
	{"Transaction IDs", 50, func(e models.EnrichedLineItem) any { return e.TransactionIDs }},
}

// Headers returns the export column names in order.
func Headers() []string {
	out := make([]string, len(lineItemColumns))
	for i, c := range lineItemColumns {
		out[i] = c.header
	}
	return out
}
