package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mediajenny/the-oracle/src/database"
	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/model"
	"github.com/mediajenny/the-oracle/src/parsers"
	"github.com/mediajenny/the-oracle/src/processors"
	"github.com/mediajenny/the-oracle/src/security"
	"github.com/mediajenny/the-oracle/src/storage"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const (
	transactionCSV = "Transaction ID,Transaction Total,Impressions\n" +
		`T1,100,"[{""LINEITEMID"":""L1""},{""LINEITEMID"":""L2""}]"` + "\n" +
		`T2,50,"[{""LINEITEMID"":""L1""}]"` + "\n" +
		`T1,100,"[{""LINEITEMID"":""L1""},{""LINEITEMID"":""L2""}]"` + "\n"

	lookupCSV = "line_item_id,line_item_name,impressions,advertiser_invoice,advertiser_name,insertion_order_name\n" +
		"L1,Line One,1000,30,Acme,IO A\n" +
		"L3,Line Three,500,10,Beta,IO B\n"
)

func TestMain(m *testing.M) {
	logger.InitLoggerWithWriter("error", io.Discard)
	os.Exit(m.Run())
}

type testEnv struct {
	db      *sql.DB
	store   *storage.LocalStore
	cache   *cache.Cache
	emails  *MockEmailService
	uploads UploadService
	reports ReportService
	users   UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "oracle.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.MigrateUp(db); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		db:     db,
		store:  store,
		cache:  cache.New(DefaultCacheExpiration, CacheCleanupInterval),
		emails: &MockEmailService{},
	}
	normalizer := parsers.DefaultNormalizer()
	env.uploads = NewUploadService(db, store, normalizer)
	env.reports = NewReportService(db, env.uploads, processors.NewReportProcessor(logger.L),
		normalizer, env.emails, env.cache, "https://oracle.example.com/")
	env.users = NewUserService(db, security.NewAuthService("test-secret-test-secret-test-secret", time.Hour, 24*time.Hour))
	return env
}

// createUser inserts a user directly; password hashing is covered by the user service tests.
func (e *testEnv) createUser(t *testing.T, email, name string) int {
	t.Helper()
	u := &model.User{Email: email, Name: name, PasswordHash: "unused"}
	if err := u.CreateUser(e.db); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u.ID
}

func (e *testEnv) upload(t *testing.T, userID int, name string, kind parsers.FileKind, content string) *model.UploadedFile {
	t.Helper()
	f, err := e.uploads.ProcessUpload(context.Background(), userID, name, kind, bytes.NewReader([]byte(content)))
	if err != nil {
		t.Fatalf("ProcessUpload(%s): %v", name, err)
	}
	return f
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
