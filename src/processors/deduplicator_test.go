package processors

import (
	"reflect"
	"testing"

	"github.com/mediajenny/the-oracle/src/models"
)

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	rows := []models.TransactionRow{
		txRow("T1", "100", "", "a.csv"),
		txRow("T2", "50", "", "a.csv"),
		txRow("T1", "999", "", "b.csv"),
		txRow("T3", "10", "", "b.csv"),
		txRow("T2", "1", "", "b.csv"),
	}

	got := NewTransactionDeduplicator().Deduplicate(rows)

	wantIDs := []string{"T1", "T2", "T3"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d rows, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].TransactionID != id {
			t.Errorf("row %d id = %q, want %q", i, got[i].TransactionID, id)
		}
	}
	if got[0].SourceFileName != "a.csv" {
		t.Errorf("T1 should come from a.csv, got %q", got[0].SourceFileName)
	}
	assertDecimal(t, "T1 total", got[0].TransactionTotal, "100")
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	rows := []models.TransactionRow{
		txRow("T1", "1", "", "a"),
		txRow("T1", "2", "", "b"),
		txRow("", "3", "", "a"),
		txRow("T2", "4", "", "a"),
		txRow("", "5", "", "b"),
	}
	d := NewTransactionDeduplicator()

	once := d.Deduplicate(rows)
	twice := d.Deduplicate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("deduplicate is not idempotent:\nonce  %+v\ntwice %+v", once, twice)
	}
}

func TestDeduplicateCollapsesEmptyIDs(t *testing.T) {
	rows := []models.TransactionRow{
		txRow("", "3", "", "a"),
		txRow("T1", "1", "", "a"),
		txRow("", "5", "", "b"),
	}

	got := NewTransactionDeduplicator().Deduplicate(rows)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].TransactionID != "" || !got[0].TransactionTotal.Equal(dec("3")) {
		t.Errorf("first empty-id row should survive, got %+v", got[0])
	}
}

func TestDeduplicateEmptyInput(t *testing.T) {
	got := NewTransactionDeduplicator().Deduplicate(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
