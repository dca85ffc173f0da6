package exporters

import (
	"encoding/json"
	"io"

	"github.com/mediajenny/the-oracle/src/models"
)

// WriteJSON writes the whole report document, indented.
func WriteJSON(w io.Writer, report *models.LineItemReport) error {
	report.EnsureNonNil()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Write dispatches on format. JSON writes the full report, the tabular
// formats write only the line item results.
func Write(w io.Writer, f Format, report *models.LineItemReport) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, report.Results)
	case FormatJSON:
		return WriteJSON(w, report)
	default:
		return WriteCSV(w, report.Results)
	}
}
