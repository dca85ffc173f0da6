package parsers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mediajenny/the-oracle/src/models"
	"github.com/mediajenny/the-oracle/src/utils"
	"gopkg.in/yaml.v3"
)

// Canonical column names.
const (
	ColTransactionID    = "Transaction ID"
	ColTransactionTotal = "Transaction Total"
	ColImpressions      = "Impressions"
	ColSourceFileName   = "Source File Name"

	ColLineItemID         = "line_item_id"
	ColLineItemName       = "line_item_name"
	ColAdvertiserName     = "advertiser_name"
	ColInsertionOrderID   = "insertion_order_id"
	ColInsertionOrderName = "insertion_order_name"
	ColPackageID          = "package_id"
	ColPackagID           = "packag_id"
	ColPackageName        = "package_name"
	ColLookupImpressions  = "impressions"
	ColAdvertiserInvoice  = "advertiser_invoice"
)

var RequiredColumns = map[FileKind][]string{
	FileKindTransaction: {ColTransactionID, ColTransactionTotal, ColImpressions},
	FileKindNxnLookup:   {ColLineItemID, ColLineItemName, ColLookupImpressions, ColAdvertiserInvoice},
}

//go:embed column_aliases.yaml
var defaultColumnAliases []byte

// ColumnAliases maps each canonical column to the header spellings accepted for it.
type ColumnAliases struct {
	Transaction map[string][]string `yaml:"transaction"`
	NxnLookup   map[string][]string `yaml:"nxn_lookup"`
}

// Normalizer renames headers to canonical columns and builds typed rows.
type Normalizer struct {
	aliases map[FileKind]map[string]string // lower-cased alias -> canonical
}

// LoadNormalizer builds a Normalizer from the embedded alias table, extended
// with the aliases in path when path is not empty.
func LoadNormalizer(path string) (*Normalizer, error) {
	var base ColumnAliases
	if err := yaml.Unmarshal(defaultColumnAliases, &base); err != nil {
		return nil, fmt.Errorf("failed to parse built-in column aliases: %w", err)
	}
	n := NewNormalizer(base)
	if path == "" {
		return n, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read column aliases file %s: %w", path, err)
	}
	var extra ColumnAliases
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse column aliases file %s: %w", path, err)
	}
	n.add(extra)
	return n, nil
}

// DefaultNormalizer returns a Normalizer using only the embedded alias table.
func DefaultNormalizer() *Normalizer {
	n, err := LoadNormalizer("")
	if err != nil {
		panic(err) // embedded file is part of the build
	}
	return n
}

func NewNormalizer(aliases ColumnAliases) *Normalizer {
	n := &Normalizer{aliases: make(map[FileKind]map[string]string)}
	n.add(aliases)
	return n
}

func (n *Normalizer) add(a ColumnAliases) {
	n.register(FileKindTransaction, a.Transaction)
	n.register(FileKindNxnLookup, a.NxnLookup)
}

func (n *Normalizer) register(kind FileKind, byCanonical map[string][]string) {
	table, ok := n.aliases[kind]
	if !ok {
		table = make(map[string]string)
		n.aliases[kind] = table
	}
	for canonical, names := range byCanonical {
		table[aliasKey(canonical)] = canonical
		for _, name := range names {
			table[aliasKey(name)] = canonical
		}
	}
}

func aliasKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalColumn maps a header to its canonical name. Unknown headers are
// returned trimmed.
func (n *Normalizer) CanonicalColumn(kind FileKind, header string) string {
	if canonical, ok := n.aliases[kind][aliasKey(header)]; ok {
		return canonical
	}
	return strings.TrimSpace(header)
}

// MissingColumns lists the required columns absent from headers.
func (n *Normalizer) MissingColumns(kind FileKind, headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[n.CanonicalColumn(kind, h)] = true
	}
	var missing []string
	for _, col := range RequiredColumns[kind] {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// CheckColumns returns ErrMissingColumns naming every absent required column.
func (n *Normalizer) CheckColumns(kind FileKind, headers []string) error {
	if missing := n.MissingColumns(kind, headers); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// NormalizeRow renames a row's keys to canonical columns. When two headers
// collapse onto one column the first non-blank value in header order wins.
func (n *Normalizer) NormalizeRow(kind FileKind, row map[string]any) map[string]any {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(row))
	for _, k := range keys {
		canonical := n.CanonicalColumn(kind, k)
		if existing, ok := out[canonical]; ok && !utils.IsBlank(existing) {
			continue
		}
		out[canonical] = row[k]
	}
	return out
}

// RowHeaders collects the distinct keys of a set of decoded row objects.
func RowHeaders(rows []map[string]any) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)
	return headers
}

// TransactionTable validates and converts a parsed transaction file. Rows
// without their own source file name are labelled with sourceFile.
func (n *Normalizer) TransactionTable(table *models.RawTable, sourceFile string) ([]models.TransactionRow, error) {
	if err := n.CheckColumns(FileKindTransaction, table.Headers); err != nil {
		return nil, err
	}
	return n.TransactionRows(table.Rows, sourceFile), nil
}

// LookupTable validates and converts a parsed NXN lookup file.
func (n *Normalizer) LookupTable(table *models.RawTable) ([]models.NxnLookupRow, error) {
	if err := n.CheckColumns(FileKindNxnLookup, table.Headers); err != nil {
		return nil, err
	}
	return n.LookupRows(table.Rows), nil
}

func (n *Normalizer) TransactionRows(rows []map[string]any, defaultSource string) []models.TransactionRow {
	out := make([]models.TransactionRow, 0, len(rows))
	for _, raw := range rows {
		row := n.NormalizeRow(FileKindTransaction, raw)
		tx := models.TransactionRow{
			TransactionID:    identifier(row[ColTransactionID]),
			TransactionTotal: utils.ParseAmount(row[ColTransactionTotal]),
			ImpressionsJSON:  impressionsText(row[ColImpressions]),
			SourceFileName:   identifier(row[ColSourceFileName]),
		}
		if tx.SourceFileName == "" {
			tx.SourceFileName = defaultSource
		}
		out = append(out, tx)
	}
	return out
}

func (n *Normalizer) LookupRows(rows []map[string]any) []models.NxnLookupRow {
	out := make([]models.NxnLookupRow, 0, len(rows))
	for _, raw := range rows {
		row := n.NormalizeRow(FileKindNxnLookup, raw)
		out = append(out, models.NxnLookupRow{
			LineItemID:         identifier(row[ColLineItemID]),
			LineItemName:       text(row[ColLineItemName]),
			AdvertiserName:     text(row[ColAdvertiserName]),
			InsertionOrderID:   identifier(row[ColInsertionOrderID]),
			InsertionOrderName: text(row[ColInsertionOrderName]),
			PackageID:          identifier(row[ColPackageID]),
			PackagID:           identifier(row[ColPackagID]),
			PackageName:        text(row[ColPackageName]),
			Impressions:        utils.ParseOptionalAmount(row[ColLookupImpressions]),
			AdvertiserInvoice:  utils.ParseOptionalAmount(row[ColAdvertiserInvoice]),
		})
	}
	return out
}

func identifier(v any) string {
	return strings.TrimSpace(utils.StringifyValue(v))
}

func text(v any) string {
	if utils.IsBlank(v) {
		return ""
	}
	return utils.StringifyValue(v)
}

// impressionsText returns the journey as JSON text. Already-decoded arrays
// and objects are re-encoded.
func impressionsText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return utils.StringifyValue(t)
	}
}
