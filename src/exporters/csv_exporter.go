package exporters

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mediajenny/the-oracle/src/models"
	"github.com/mediajenny/the-oracle/src/security/validation"
	"github.com/shopspring/decimal"
)

// WriteCSV writes the line item table as CSV. Text cells are sanitised
// against spreadsheet formula injection.
func WriteCSV(w io.Writer, items []models.EnrichedLineItem) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Headers()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(lineItemColumns))
	for _, item := range items {
		for i, col := range lineItemColumns {
			record[i] = csvCell(col.value(item))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for line item %s: %w", item.LineItemID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvCell(v any) string {
	switch t := v.(type) {
	case string:
		return validation.SanitizeForFormulaInjection(t)
	case int:
		return strconv.Itoa(t)
	case *decimal.Decimal:
		if t == nil {
			return ""
		}
		return t.String()
	default:
		return ""
	}
}
