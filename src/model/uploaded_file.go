package model

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// UploadedFile is a stored report input in a user's file library.
type UploadedFile struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	FileName      string    `json:"file_name"`
	FileType      string    `json:"file_type"`
	StorageKey    string    `json:"-"`
	FileSize      int64     `json:"file_size"`
	FileSizeHuman string    `json:"file_size_human"`
	MimeType      string    `json:"mime_type,omitempty"`
	RowCount      int       `json:"row_count"`
	SHA256        string    `json:"sha256,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

const uploadedFileColumns = `id, user_id, file_name, file_type, storage_key, file_size, mime_type, row_count, sha256, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUploadedFile(row rowScanner) (*UploadedFile, error) {
	var f UploadedFile
	var mimeType, sha sql.NullString
	err := row.Scan(&f.ID, &f.UserID, &f.FileName, &f.FileType, &f.StorageKey, &f.FileSize, &mimeType, &f.RowCount, &sha, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.MimeType = mimeType.String
	f.SHA256 = sha.String
	return &f, nil
}

func CreateUploadedFile(db *sql.DB, f *UploadedFile) error {
	query := `
	INSERT INTO uploaded_files (user_id, file_name, file_type, storage_key, file_size, mime_type, row_count, sha256, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	f.CreatedAt = time.Now().UTC()
	res, err := db.Exec(query, f.UserID, f.FileName, f.FileType, f.StorageKey, f.FileSize,
		nullString(f.MimeType), f.RowCount, nullString(f.SHA256), f.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = int(id)
	return nil
}

// GetUploadedFileByID returns a file owned by userID.
func GetUploadedFileByID(db *sql.DB, userID, id int) (*UploadedFile, error) {
	row := db.QueryRow(`SELECT `+uploadedFileColumns+` FROM uploaded_files WHERE id = ? AND user_id = ?`, id, userID)
	f, err := scanUploadedFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return f, err
}

// ListUploadedFiles returns the user's files, newest first. An empty
// fileType lists every type.
func ListUploadedFiles(db *sql.DB, userID int, fileType string) ([]UploadedFile, error) {
	query := `SELECT ` + uploadedFileColumns + ` FROM uploaded_files WHERE user_id = ?`
	args := []interface{}{userID}
	if fileType != "" {
		query += ` AND file_type = ?`
		args = append(args, fileType)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []UploadedFile{}
	for rows.Next() {
		f, err := scanUploadedFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// GetUploadedFilesByIDs retrieves several of a user's files in a single query,
// keyed by id. Ids the user does not own are simply absent.
func GetUploadedFilesByIDs(db *sql.DB, userID int, ids []int) (map[int]UploadedFile, error) {
	files := make(map[int]UploadedFile)
	if len(ids) == 0 {
		return files, nil
	}

	query := `SELECT ` + uploadedFileColumns + ` FROM uploaded_files WHERE user_id = ? AND id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanUploadedFile(rows)
		if err != nil {
			return nil, err
		}
		files[f.ID] = *f
	}
	return files, rows.Err()
}

// DeleteUploadedFile removes a file record owned by userID. It reports
// whether a row was deleted.
func DeleteUploadedFile(db *sql.DB, userID, id int) (bool, error) {
	res, err := db.Exec(`DELETE FROM uploaded_files WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
