package services

import (
	"context"
	"io"

	"github.com/mediajenny/the-oracle/src/exporters"
	"github.com/mediajenny/the-oracle/src/model"
	"github.com/mediajenny/the-oracle/src/models"
	"github.com/mediajenny/the-oracle/src/parsers"
	"github.com/mediajenny/the-oracle/src/processors"
)

// UploadService manages the file library: validated, parsed and stored
// transaction and NXN lookup files.
type UploadService interface {
	ProcessUpload(ctx context.Context, userID int, fileName string, kind parsers.FileKind, content io.ReadSeeker) (*model.UploadedFile, error)
	ListFiles(ctx context.Context, userID int, fileType string) ([]model.UploadedFile, error)
	GetFile(ctx context.Context, userID, fileID int) (*model.UploadedFile, error)
	OpenFile(ctx context.Context, userID, fileID int) (*model.UploadedFile, io.ReadSeekCloser, error)
	DeleteFile(ctx context.Context, userID, fileID int) error
	LoadTransactionRows(ctx context.Context, userID int, fileIDs []int) ([]models.TransactionRow, error)
	LoadLookupRows(ctx context.Context, userID, fileID int) ([]models.NxnLookupRow, error)
}

// ReportService runs the line item pipeline and manages saved reports.
type ReportService interface {
	ProcessRows(ctx context.Context, transactionData, nxnData []map[string]any) (*models.LineItemReport, error)
	CreateReport(ctx context.Context, userID int, req CreateReportRequest) (*ReportDetail, error)
	ListReports(ctx context.Context, userID int) ([]ReportSummary, error)
	GetReport(ctx context.Context, userID, reportID int) (*ReportDetail, error)
	DeleteReport(ctx context.Context, userID, reportID int) error
	ExportReport(ctx context.Context, userID, reportID int, format exporters.Format) (*ExportedFile, error)
	GetRankings(ctx context.Context, userID, reportID int, filter processors.LineItemFilter, topN int) (*RankingsResult, error)
	ShareReport(ctx context.Context, userID, reportID int, recipientEmail string) (*ShareInfo, error)
	RevokeShare(ctx context.Context, userID, reportID int) error
	GetSharedReport(ctx context.Context, token string) (*ReportDetail, error)
}

// UserService covers registration, credential login and sessions.
type UserService interface {
	Register(ctx context.Context, email, name, password string) (*model.User, error)
	Login(ctx context.Context, email, password, userAgent, clientIP string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accessToken string) error
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
	GetUser(ctx context.Context, userID int) (*model.User, error)
	ChangePassword(ctx context.Context, userID int, accessToken, currentPassword, newPassword string) error
}

type CreateReportRequest struct {
	Name               string `json:"name"`
	TransactionFileIDs []int  `json:"transaction_file_ids"`
	NxnFileID          int    `json:"nxn_file_id"`
}

// ReportDetail is a saved report with its decoded document.
type ReportDetail struct {
	model.Report
	IsShared bool                   `json:"is_shared"`
	Data     *models.LineItemReport `json:"report"`
}

// ReportSummary is a list entry: report metadata plus headline totals.
type ReportSummary struct {
	model.Report
	IsShared bool                `json:"is_shared"`
	Summary  models.SummaryStats `json:"summary"`
}

type RankingsResult struct {
	models.LineItemRankings
	Facets models.LineItemFacets `json:"facets"`
}

type ShareInfo struct {
	ShareToken string `json:"share_token"`
	ShareURL   string `json:"share_url"`
	EmailSent  bool   `json:"email_sent"`
}

type ExportedFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
}
