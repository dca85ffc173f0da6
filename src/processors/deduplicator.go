package processors

import "github.com/mediajenny/the-oracle/src/models"

type transactionDeduplicatorImpl struct{}

func NewTransactionDeduplicator() TransactionDeduplicator {
	return &transactionDeduplicatorImpl{}
}

// Deduplicate keeps the first row seen for every transaction id, preserving
// input order. An empty id is an ordinary key: all empty-id rows collapse
// into the first one.
func (d *transactionDeduplicatorImpl) Deduplicate(rows []models.TransactionRow) []models.TransactionRow {
	seen := make(map[string]struct{}, len(rows))
	unique := make([]models.TransactionRow, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.TransactionID]; dup {
			continue
		}
		seen[row.TransactionID] = struct{}{}
		unique = append(unique, row)
	}
	return unique
}
