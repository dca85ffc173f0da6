package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mediajenny/the-oracle/src/exporters"
	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/model"
	"github.com/mediajenny/the-oracle/src/models"
	"github.com/mediajenny/the-oracle/src/parsers"
	"github.com/mediajenny/the-oracle/src/processors"
	"github.com/mediajenny/the-oracle/src/security"
	"github.com/patrickmn/go-cache"
)

const (
	// Decoded report documents, keyed by report id. Reports are immutable
	// once generated so entries only leave on delete or expiry.
	ckReportDocument = "report_doc_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	TransactionDataRequired = "Transaction data is required"
	NxnDataRequired         = "NXN lookup data is required"
)

type reportServiceImpl struct {
	db           *sql.DB
	uploads      UploadService
	processor    processors.ReportProcessor
	normalizer   *parsers.Normalizer
	emails       EmailService
	reportCache  *cache.Cache
	shareBaseURL string
}

func NewReportService(
	db *sql.DB,
	uploads UploadService,
	processor processors.ReportProcessor,
	normalizer *parsers.Normalizer,
	emails EmailService,
	reportCache *cache.Cache,
	shareBaseURL string,
) ReportService {
	return &reportServiceImpl{
		db:           db,
		uploads:      uploads,
		processor:    processor,
		normalizer:   normalizer,
		emails:       emails,
		reportCache:  reportCache,
		shareBaseURL: strings.TrimRight(shareBaseURL, "/"),
	}
}

// ProcessRows runs the pipeline over row objects posted by a client.
func (s *reportServiceImpl) ProcessRows(ctx context.Context, transactionData, nxnData []map[string]any) (*models.LineItemReport, error) {
	if len(transactionData) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, TransactionDataRequired)
	}
	if len(nxnData) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, NxnDataRequired)
	}
	if err := s.normalizer.CheckColumns(parsers.FileKindTransaction, parsers.RowHeaders(transactionData)); err != nil {
		return nil, fmt.Errorf("%w: transaction data: %w", ErrValidationFailed, err)
	}
	if err := s.normalizer.CheckColumns(parsers.FileKindNxnLookup, parsers.RowHeaders(nxnData)); err != nil {
		return nil, fmt.Errorf("%w: NXN lookup data: %w", ErrValidationFailed, err)
	}

	startTime := time.Now()
	rows := s.normalizer.TransactionRows(transactionData, "")
	lookup := s.normalizer.LookupRows(nxnData)
	report := s.processor.Process(rows, lookup)

	logger.FromContext(ctx).Info("Processed line item report",
		"transactions", len(rows), "lookupRows", len(lookup),
		"lineItems", len(report.Results), "duration", time.Since(startTime))
	return &report, nil
}

func (s *reportServiceImpl) CreateReport(ctx context.Context, userID int, req CreateReportRequest) (*ReportDetail, error) {
	if len(req.TransactionFileIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one transaction file is required", ErrValidationFailed)
	}
	if req.NxnFileID <= 0 {
		return nil, fmt.Errorf("%w: an NXN lookup file is required", ErrValidationFailed)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Line item report " + time.Now().UTC().Format("2006-01-02 15:04")
	}

	rows, err := s.uploads.LoadTransactionRows(ctx, userID, req.TransactionFileIDs)
	if err != nil {
		return nil, err
	}
	lookup, err := s.uploads.LoadLookupRows(ctx, userID, req.NxnFileID)
	if err != nil {
		return nil, err
	}

	doc := s.processor.Process(rows, lookup)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	nxnFileID := req.NxnFileID
	record := &model.Report{
		UserID:             userID,
		Name:               name,
		TransactionFileIDs: uniqueIDs(req.TransactionFileIDs),
		NxnFileID:          &nxnFileID,
		ReportData:         string(data),
	}
	if err := model.CreateReport(s.db, record); err != nil {
		return nil, fmt.Errorf("error saving report: %w", err)
	}
	s.reportCache.Set(fmt.Sprintf(ckReportDocument, record.ID), &doc, cache.DefaultExpiration)

	logger.FromContext(ctx).Info("Report created", "userID", userID, "reportID", record.ID,
		"lineItems", len(doc.Results), "transactions", len(rows))
	return &ReportDetail{Report: *record, Data: &doc}, nil
}

func (s *reportServiceImpl) ListReports(ctx context.Context, userID int) ([]ReportSummary, error) {
	reports, err := model.ListReports(s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}

	summaries := make([]ReportSummary, 0, len(reports))
	for _, r := range reports {
		var doc struct {
			Summary models.SummaryStats `json:"summary"`
		}
		if err := json.Unmarshal([]byte(r.ReportData), &doc); err != nil {
			logger.FromContext(ctx).Warn("Skipping summary of unreadable report", "reportID", r.ID, "error", err)
		}
		summaries = append(summaries, ReportSummary{Report: r, IsShared: r.ShareToken != "", Summary: doc.Summary})
	}
	return summaries, nil
}

func (s *reportServiceImpl) GetReport(ctx context.Context, userID, reportID int) (*ReportDetail, error) {
	r, err := model.GetReportByID(s.db, userID, reportID)
	if errors.Is(err, model.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: report %d", ErrNotFound, reportID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching report %d: %w", reportID, err)
	}
	return s.detail(ctx, r)
}

func (s *reportServiceImpl) detail(ctx context.Context, r *model.Report) (*ReportDetail, error) {
	doc, err := s.document(ctx, r)
	if err != nil {
		return nil, err
	}
	return &ReportDetail{Report: *r, IsShared: r.ShareToken != "", Data: doc}, nil
}

// document decodes a stored report, going through the cache.
func (s *reportServiceImpl) document(ctx context.Context, r *model.Report) (*models.LineItemReport, error) {
	key := fmt.Sprintf(ckReportDocument, r.ID)
	if cached, found := s.reportCache.Get(key); found {
		logger.FromContext(ctx).Debug("Cache hit for report document", "reportID", r.ID)
		return cached.(*models.LineItemReport), nil
	}

	var doc models.LineItemReport
	if err := json.Unmarshal([]byte(r.ReportData), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode report %d: %w", r.ID, err)
	}
	doc.EnsureNonNil()
	s.reportCache.Set(key, &doc, cache.DefaultExpiration)
	return &doc, nil
}

func (s *reportServiceImpl) DeleteReport(ctx context.Context, userID, reportID int) error {
	deleted, err := model.DeleteReport(s.db, userID, reportID)
	if err != nil {
		return fmt.Errorf("error deleting report %d: %w", reportID, err)
	}
	if !deleted {
		return fmt.Errorf("%w: report %d", ErrNotFound, reportID)
	}
	s.reportCache.Delete(fmt.Sprintf(ckReportDocument, reportID))
	logger.FromContext(ctx).Info("Report deleted", "userID", userID, "reportID", reportID)
	return nil
}

func (s *reportServiceImpl) ExportReport(ctx context.Context, userID, reportID int, format exporters.Format) (*ExportedFile, error) {
	detail, err := s.GetReport(ctx, userID, reportID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := exporters.Write(&buf, format, detail.Data); err != nil {
		return nil, fmt.Errorf("failed to export report %d as %s: %w", reportID, format, err)
	}
	return &ExportedFile{
		FileName:    exporters.FileName(detail.Name, format),
		ContentType: format.ContentType(),
		Content:     buf.Bytes(),
	}, nil
}

func (s *reportServiceImpl) GetRankings(ctx context.Context, userID, reportID int, filter processors.LineItemFilter, topN int) (*RankingsResult, error) {
	detail, err := s.GetReport(ctx, userID, reportID)
	if err != nil {
		return nil, err
	}
	return &RankingsResult{
		LineItemRankings: processors.RankLineItems(detail.Data.Results, filter, topN),
		Facets:           processors.FacetValues(detail.Data.Results),
	}, nil
}

// ShareReport issues a share token, reusing an existing one, and
// optionally emails the link. A failed email does not undo the share.
func (s *reportServiceImpl) ShareReport(ctx context.Context, userID, reportID int, recipientEmail string) (*ShareInfo, error) {
	r, err := model.GetReportByID(s.db, userID, reportID)
	if errors.Is(err, model.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: report %d", ErrNotFound, reportID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching report %d: %w", reportID, err)
	}

	token := r.ShareToken
	if token == "" {
		if token, err = security.GenerateShareToken(); err != nil {
			return nil, fmt.Errorf("failed to generate share token: %w", err)
		}
		if _, err := model.SetReportShareToken(s.db, userID, reportID, token); err != nil {
			return nil, fmt.Errorf("error saving share token: %w", err)
		}
		logger.FromContext(ctx).Info("Report shared", "userID", userID, "reportID", reportID)
	}

	info := &ShareInfo{ShareToken: token, ShareURL: s.shareBaseURL + "/share/" + token}
	if recipientEmail = strings.TrimSpace(recipientEmail); recipientEmail != "" {
		sharedBy := "A colleague"
		if u, err := model.GetUserByID(s.db, userID); err == nil && u.Name != "" {
			sharedBy = u.Name
		}
		if err := s.emails.SendReportShareEmail(ctx, recipientEmail, sharedBy, r.Name, info.ShareURL); err != nil {
			logger.FromContext(ctx).Warn("Share link created but email failed", "reportID", reportID, "error", err)
		} else {
			info.EmailSent = true
		}
	}
	return info, nil
}

func (s *reportServiceImpl) RevokeShare(ctx context.Context, userID, reportID int) error {
	updated, err := model.SetReportShareToken(s.db, userID, reportID, "")
	if err != nil {
		return fmt.Errorf("error revoking share token: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: report %d", ErrNotFound, reportID)
	}
	logger.FromContext(ctx).Info("Report share revoked", "userID", userID, "reportID", reportID)
	return nil
}

func (s *reportServiceImpl) GetSharedReport(ctx context.Context, token string) (*ReportDetail, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: share token is required", ErrValidationFailed)
	}
	r, err := model.GetReportByShareToken(s.db, token)
	if errors.Is(err, model.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: shared report", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching shared report: %w", err)
	}
	return s.detail(ctx, r)
}
