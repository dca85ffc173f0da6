package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/model"
	"github.com/mediajenny/the-oracle/src/models"
	"github.com/mediajenny/the-oracle/src/parsers"
	"github.com/mediajenny/the-oracle/src/security/validation"
	"github.com/mediajenny/the-oracle/src/storage"
	"github.com/mediajenny/the-oracle/src/utils"
)

type uploadServiceImpl struct {
	db         *sql.DB
	store      storage.BlobStore
	normalizer *parsers.Normalizer
}

func NewUploadService(db *sql.DB, store storage.BlobStore, normalizer *parsers.Normalizer) UploadService {
	return &uploadServiceImpl{
		db:         db,
		store:      store,
		normalizer: normalizer,
	}
}

// ProcessUpload parses the file with the rules for its kind, checks the
// required columns, then stores the bytes and records the metadata.
func (s *uploadServiceImpl) ProcessUpload(ctx context.Context, userID int, fileName string, kind parsers.FileKind, content io.ReadSeeker) (*model.UploadedFile, error) {
	startTime := time.Now()
	log := logger.FromContext(ctx)
	log.Info("ProcessUpload START", "userID", userID, "fileName", fileName, "fileType", kind)

	table, err := s.parse(fileName, kind, content)
	if err != nil {
		return nil, err
	}
	if err := s.normalizer.CheckColumns(kind, table.Headers); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: file contains no data rows", ErrValidationFailed)
	}

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}
	obj, err := s.store.Save(userID, fileName, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	record := &model.UploadedFile{
		UserID:     userID,
		FileName:   fileName,
		FileType:   string(kind),
		StorageKey: obj.Key,
		FileSize:   obj.Size,
		MimeType:   validation.MimeTypeForFile(fileName),
		RowCount:   len(table.Rows),
		SHA256:     obj.SHA256,
	}
	if err := model.CreateUploadedFile(s.db, record); err != nil {
		if delErr := s.store.Delete(obj.Key); delErr != nil {
			log.Error("Failed to remove orphaned upload", "storageKey", obj.Key, "error", delErr)
		}
		return nil, fmt.Errorf("error saving file metadata: %w", err)
	}
	record.FileSizeHuman = utils.HumanFileSize(record.FileSize)

	log.Info("ProcessUpload END", "userID", userID, "fileID", record.ID, "rows", record.RowCount, "sheet", table.Sheet, "duration", time.Since(startTime))
	return record, nil
}

func (s *uploadServiceImpl) parse(fileName string, kind parsers.FileKind, r io.Reader) (*models.RawTable, error) {
	parser, err := parsers.GetParser(fileName, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	table, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return table, nil
}

func (s *uploadServiceImpl) ListFiles(ctx context.Context, userID int, fileType string) ([]model.UploadedFile, error) {
	if fileType != "" {
		if _, err := parsers.ParseFileKind(fileType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
	}
	files, err := model.ListUploadedFiles(s.db, userID, fileType)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	for i := range files {
		files[i].FileSizeHuman = utils.HumanFileSize(files[i].FileSize)
	}
	return files, nil
}

func (s *uploadServiceImpl) GetFile(ctx context.Context, userID, fileID int) (*model.UploadedFile, error) {
	f, err := model.GetUploadedFileByID(s.db, userID, fileID)
	if errors.Is(err, model.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching file %d: %w", fileID, err)
	}
	f.FileSizeHuman = utils.HumanFileSize(f.FileSize)
	return f, nil
}

func (s *uploadServiceImpl) OpenFile(ctx context.Context, userID, fileID int) (*model.UploadedFile, io.ReadSeekCloser, error) {
	f, err := s.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(f.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		logger.FromContext(ctx).Error("Stored blob missing for file record", "fileID", fileID, "storageKey", f.StorageKey)
		return nil, nil, fmt.Errorf("%w: contents of file %d", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, nil, err
	}
	return f, rc, nil
}

// DeleteFile removes the record first so a failed blob delete leaves at
// most an orphaned blob, never a dangling record.
func (s *uploadServiceImpl) DeleteFile(ctx context.Context, userID, fileID int) error {
	f, err := s.GetFile(ctx, userID, fileID)
	if err != nil {
		return err
	}
	deleted, err := model.DeleteUploadedFile(s.db, userID, fileID)
	if err != nil {
		return fmt.Errorf("error deleting file %d: %w", fileID, err)
	}
	if !deleted {
		return fmt.Errorf("%w: file %d", ErrNotFound, fileID)
	}
	if err := s.store.Delete(f.StorageKey); err != nil {
		logger.FromContext(ctx).Error("Failed to delete stored blob", "fileID", fileID, "storageKey", f.StorageKey, "error", err)
	}
	logger.FromContext(ctx).Info("Deleted uploaded file", "userID", userID, "fileID", fileID)
	return nil
}

// LoadTransactionRows parses stored transaction files in the given order.
// Rows without a source column are labelled with their file's name.
func (s *uploadServiceImpl) LoadTransactionRows(ctx context.Context, userID int, fileIDs []int) ([]models.TransactionRow, error) {
	ids := uniqueIDs(fileIDs)
	files, err := model.GetUploadedFilesByIDs(s.db, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("error fetching transaction files: %w", err)
	}

	var rows []models.TransactionRow
	for _, id := range ids {
		f, ok := files[id]
		if !ok {
			return nil, fmt.Errorf("%w: file %d", ErrNotFound, id)
		}
		if f.FileType != string(parsers.FileKindTransaction) {
			return nil, fmt.Errorf("%w: file %d (%s) is not a transaction file", ErrValidationFailed, id, f.FileName)
		}
		table, err := s.loadTable(f, parsers.FileKindTransaction)
		if err != nil {
			return nil, err
		}
		fileRows, err := s.normalizer.TransactionTable(table, f.FileName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrValidationFailed, f.FileName, err)
		}
		rows = append(rows, fileRows...)
	}
	logger.FromContext(ctx).Debug("Loaded transaction rows", "userID", userID, "files", len(ids), "rows", len(rows))
	return rows, nil
}

func (s *uploadServiceImpl) LoadLookupRows(ctx context.Context, userID, fileID int) ([]models.NxnLookupRow, error) {
	f, err := s.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if f.FileType != string(parsers.FileKindNxnLookup) {
		return nil, fmt.Errorf("%w: file %d (%s) is not an NXN lookup file", ErrValidationFailed, fileID, f.FileName)
	}
	table, err := s.loadTable(*f, parsers.FileKindNxnLookup)
	if err != nil {
		return nil, err
	}
	rows, err := s.normalizer.LookupTable(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrValidationFailed, f.FileName, err)
	}
	return rows, nil
}

func (s *uploadServiceImpl) loadTable(f model.UploadedFile, kind parsers.FileKind) (*models.RawTable, error) {
	rc, err := s.store.Open(f.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: contents of file %d", ErrNotFound, f.ID)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.parse(f.FileName, kind, rc)
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
