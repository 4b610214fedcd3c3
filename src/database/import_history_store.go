package database

import (
	"context"
	"fmt"

	"github.com/username/tradebook/backend/src/models"
)

func (q *Queries) InsertImportHistory(ctx context.Context, h *models.ImportHistory) error {
	_, err := q.q.ExecContext(ctx, `INSERT INTO import_history (
		id, account_id, filename, file_size, format, records_processed, records_imported,
		records_updated, records_duplicates, records_skipped, records_errors, status,
		error_message, started_at, completed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.AccountID, h.Filename, h.FileSize, string(h.Format), h.RecordsProcessed,
		h.RecordsImported, h.RecordsUpdated, h.RecordsDuplicates, h.RecordsSkipped,
		h.RecordsErrors, h.Status, h.ErrorMessage, formatTimestamp(h.StartedAt),
		formatTimestamp(h.CompletedAt))
	if err != nil {
		return fmt.Errorf("insert import history %s: %w", h.ID, err)
	}
	return nil
}

// ListImportHistory returns an account's imports, newest first.
func (q *Queries) ListImportHistory(ctx context.Context, accountID int64) ([]models.ImportHistory, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT id, account_id, filename, file_size, format,
		records_processed, records_imported, records_updated, records_duplicates, records_skipped,
		records_errors, status, error_message, started_at, completed_at
		FROM import_history WHERE account_id = ? ORDER BY started_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list import history: %w", err)
	}
	defer rows.Close()

	var out []models.ImportHistory
	for rows.Next() {
		var (
			h                  models.ImportHistory
			format             string
			started, completed string
		)
		if err := rows.Scan(&h.ID, &h.AccountID, &h.Filename, &h.FileSize, &format,
			&h.RecordsProcessed, &h.RecordsImported, &h.RecordsUpdated, &h.RecordsDuplicates,
			&h.RecordsSkipped, &h.RecordsErrors, &h.Status, &h.ErrorMessage, &started, &completed); err != nil {
			return nil, fmt.Errorf("scan import history: %w", err)
		}
		h.Format = models.BrokerageFormat(format)
		if h.StartedAt, err = parseTimestamp(started); err != nil {
			return nil, fmt.Errorf("import %s started_at: %w", h.ID, err)
		}
		if h.CompletedAt, err = parseTimestamp(completed); err != nil {
			return nil, fmt.Errorf("import %s completed_at: %w", h.ID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
