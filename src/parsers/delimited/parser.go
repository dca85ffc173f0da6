package delimited

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mediajenny/the-oracle/src/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads comma separated files. The first non-empty line is the header.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*models.RawTable, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	table := &models.RawTable{Headers: headers, Rows: []map[string]any{}}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}
		table.Rows = append(table.Rows, recordToRow(headers, record))
	}
	return table, nil
}

func recordToRow(headers, record []string) map[string]any {
	row := make(map[string]any, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			row[h] = nil
			continue
		}
		row[h] = record[i]
	}
	return row
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
