package model

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Report is a saved line item performance report. ReportData holds the
// JSON report document.
type Report struct {
	ID                 int       `json:"id"`
	UserID             int       `json:"user_id"`
	Name               string    `json:"name"`
	TransactionFileIDs []int     `json:"transaction_file_ids"`
	NxnFileID          *int      `json:"nxn_file_id"`
	ReportData         string    `json:"-"`
	ShareToken         string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

const reportColumns = `id, user_id, name, transaction_file_ids, nxn_file_id, report_data, share_token, created_at, updated_at`

func scanReport(row rowScanner) (*Report, error) {
	var r Report
	var fileIDs string
	var nxnFileID sql.NullInt64
	var shareToken sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &fileIDs, &nxnFileID, &r.ReportData, &shareToken, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fileIDs), &r.TransactionFileIDs); err != nil {
		return nil, fmt.Errorf("corrupt transaction_file_ids for report %d: %w", r.ID, err)
	}
	if nxnFileID.Valid {
		id := int(nxnFileID.Int64)
		r.NxnFileID = &id
	}
	r.ShareToken = shareToken.String
	return &r, nil
}

func CreateReport(db *sql.DB, r *Report) error {
	if r.TransactionFileIDs == nil {
		r.TransactionFileIDs = []int{}
	}
	fileIDs, err := json.Marshal(r.TransactionFileIDs)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO reports (user_id, name, transaction_file_ids, nxn_file_id, report_data, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	res, err := db.Exec(query, r.UserID, r.Name, string(fileIDs), r.NxnFileID, r.ReportData, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = int(id)
	return nil
}

// GetReportByID returns a report owned by userID.
func GetReportByID(db *sql.DB, userID, id int) (*Report, error) {
	row := db.QueryRow(`SELECT `+reportColumns+` FROM reports WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return r, err
}

// GetReportByShareToken returns the report a share token points at,
// regardless of owner.
func GetReportByShareToken(db *sql.DB, token string) (*Report, error) {
	row := db.QueryRow(`SELECT `+reportColumns+` FROM reports WHERE share_token = ?`, token)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return r, err
}

// ListReports returns the user's reports, newest first.
func ListReports(db *sql.DB, userID int) ([]Report, error) {
	rows, err := db.Query(`SELECT `+reportColumns+` FROM reports WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func DeleteReport(db *sql.DB, userID, id int) (bool, error) {
	res, err := db.Exec(`DELETE FROM reports WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetReportShareToken stores token on a report owned by userID. An empty
// token revokes sharing by setting the column to NULL.
func SetReportShareToken(db *sql.DB, userID, id int, token string) (bool, error) {
	res, err := db.Exec(`UPDATE reports SET share_token = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		nullString(token), time.Now().UTC(), id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
