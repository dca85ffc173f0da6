package models

// RawTable is a parsed tabular file before column normalisation.
// Empty cells are stored as nil.
type RawTable struct {
	Sheet   string
	Headers []string
	Rows    []map[string]any
}
