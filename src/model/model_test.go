package model

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mediajenny/the-oracle/src/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "model.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.MigrateUp(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func createUser(t *testing.T, db *sql.DB, email string) *User {
	t.Helper()
	u := &User{Email: email, Name: "Test", PasswordHash: "hash"}
	if err := u.CreateUser(db); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "ana@example.com")
	if u.ID == 0 || u.Role != RoleMember {
		t.Fatalf("unexpected user %+v", u)
	}

	got, err := GetUserByEmail(db, "ana@example.com")
	if err != nil || got.ID != u.ID || got.Role != RoleMember {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := GetUserByID(db, 999); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
	if exists, _ := EmailExists(db, "ana@example.com"); !exists {
		t.Error("EmailExists should be true")
	}

	dup := &User{Email: "ana@example.com", PasswordHash: "x"}
	if err := dup.CreateUser(db); err == nil {
		t.Error("duplicate email should violate the unique constraint")
	}

	if err := UpdateUserPassword(db, u.ID, "new-hash"); err != nil {
		t.Fatal(err)
	}
	got, _ = GetUserByID(db, u.ID)
	if got.PasswordHash != "new-hash" {
		t.Errorf("password hash not updated")
	}
}

func TestSessions(t *testing.T) {
	db := newTestDB(t)
	u := createUser(t, db, "s@example.com")

	live := &Session{UserID: u.ID, Token: "access-1", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &Session{UserID: u.ID, Token: "access-2", RefreshToken: "refresh-2", ExpiresAt: time.Now().Add(-time.Hour)}
	for _, s := range []*Session{live, expired} {
		if err := CreateSession(db, s); err != nil {
			t.Fatal(err)
		}
	}

	if s, err := GetSessionByToken(db, "access-1"); err != nil || s.UserID != u.ID {
		t.Fatalf("GetSessionByToken = %+v, %v", s, err)
	}
	if _, err := GetSessionByToken(db, "access-2"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expired session should not be found, got %v", err)
	}

	s, err := GetSessionByRefreshToken(db, "refresh-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := UpdateSessionToken(db, s.ID, "access-3"); err != nil {
		t.Fatal(err)
	}
	if _, err := GetSessionByToken(db, "access-3"); err != nil {
		t.Errorf("rotated token should resolve, got %v", err)
	}

	if err := DeleteSessionByToken(db, "access-3"); err != nil {
		t.Fatal(err)
	}
	if _, err := GetSessionByToken(db, "access-3"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("deleted session still found: %v", err)
	}
	if err := DeleteSessionByToken(db, "never-existed"); err != nil {
		t.Errorf("deleting a missing session should not fail: %v", err)
	}
}

func TestUploadedFiles(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")

	tx := &UploadedFile{UserID: owner.ID, FileName: "jan.csv", FileType: "transaction", StorageKey: "1/a", FileSize: 10, RowCount: 2}
	nxn := &UploadedFile{UserID: owner.ID, FileName: "nxn.xlsx", FileType: "nxn_lookup", StorageKey: "1/b", MimeType: "x"}
	foreign := &UploadedFile{UserID: other.ID, FileName: "x.csv", FileType: "transaction", StorageKey: "2/c"}
	for _, f := range []*UploadedFile{tx, nxn, foreign} {
		if err := CreateUploadedFile(db, f); err != nil {
			t.Fatal(err)
		}
	}

	all, err := ListUploadedFiles(db, owner.ID, "")
	if err != nil || len(all) != 2 || all[0].ID != nxn.ID {
		t.Fatalf("ListUploadedFiles = %+v, %v (want newest first)", all, err)
	}
	onlyTx, _ := ListUploadedFiles(db, owner.ID, "transaction")
	if len(onlyTx) != 1 || onlyTx[0].FileName != "jan.csv" {
		t.Errorf("type filter failed: %+v", onlyTx)
	}

	byID, err := GetUploadedFilesByIDs(db, owner.ID, []int{tx.ID, nxn.ID, foreign.ID})
	if err != nil || len(byID) != 2 {
		t.Fatalf("GetUploadedFilesByIDs = %v, %v", byID, err)
	}
	if _, ok := byID[foreign.ID]; ok {
		t.Error("another user's file must not be returned")
	}

	if _, err := GetUploadedFileByID(db, owner.ID, foreign.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for a foreign file, got %v", err)
	}
	if deleted, _ := DeleteUploadedFile(db, other.ID, tx.ID); deleted {
		t.Error("non-owner must not delete the file")
	}
	if deleted, err := DeleteUploadedFile(db, owner.ID, tx.ID); !deleted || err != nil {
		t.Errorf("owner delete = %v, %v", deleted, err)
	}
}

func TestReports(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "r@example.com")
	nxnID := 5

	first := &Report{UserID: owner.ID, Name: "Jan", TransactionFileIDs: []int{1, 2}, NxnFileID: &nxnID, ReportData: `{"results":[]}`}
	second := &Report{UserID: owner.ID, Name: "Feb", ReportData: `{}`}
	for _, r := range []*Report{first, second} {
		if err := CreateReport(db, r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := GetReportByID(db, owner.ID, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.TransactionFileIDs) != 2 || got.NxnFileID == nil || *got.NxnFileID != 5 || got.ShareToken != "" {
		t.Errorf("unexpected report %+v", got)
	}

	list, _ := ListReports(db, owner.ID)
	if len(list) != 2 || list[0].Name != "Feb" {
		t.Errorf("ListReports should be newest first, got %+v", list)
	}

	if ok, err := SetReportShareToken(db, owner.ID, first.ID, "tok"); !ok || err != nil {
		t.Fatalf("SetReportShareToken = %v, %v", ok, err)
	}
	shared, err := GetReportByShareToken(db, "tok")
	if err != nil || shared.ID != first.ID {
		t.Fatalf("GetReportByShareToken = %+v, %v", shared, err)
	}
	if ok, _ := SetReportShareToken(db, owner.ID, first.ID, ""); !ok {
		t.Fatal("revoke failed")
	}
	if _, err := GetReportByShareToken(db, "tok"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("revoked token should not resolve, got %v", err)
	}

	if ok, _ := DeleteReport(db, owner.ID+1, first.ID); ok {
		t.Error("non-owner delete should not affect rows")
	}
	if ok, _ := DeleteReport(db, owner.ID, first.ID); !ok {
		t.Error("owner delete failed")
	}
}
