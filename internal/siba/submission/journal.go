package submission

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/models"
)

// Journal keeps a local record of every submission attempt, including the
// locally recorded fallbacks that never reached the authority. It exists
// for later reconciliation and reporting; a write failure must never
// affect the submission outcome, so errors are logged and swallowed.
type Journal struct {
	db  *sql.DB
	log logger.Logger
}

func NewJournal(db *sql.DB, log logger.Logger) *Journal {
	return &Journal{db: db, log: log}
}

const insertJournalEntry = `
	INSERT INTO siba_submission_journal
		(id, property_id, reservation_code, submission_id, result, warning, submitted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Record writes one journal row. Best-effort.
func (j *Journal) Record(ctx context.Context, propertyID int64, outcome models.SubmissionOutcome) {
	if j == nil || j.db == nil {
		return
	}

	result := "submitted"
	if !outcome.Success {
		result = "invalid"
	} else if outcome.IsLocalFallback() {
		result = "local_fallback"
	}

	_, err := j.db.ExecContext(ctx, insertJournalEntry,
		uuid.New().String(),
		propertyID,
		outcome.ReservationCode,
		outcome.SubmissionID,
		result,
		outcome.Warning,
		outcome.SubmittedAt,
	)
	if err != nil {
		j.log.Warn("Failed to journal submission attempt", map[string]interface{}{
			"property_id":   propertyID,
			"submission_id": outcome.SubmissionID,
			"error":         err.Error(),
		})
	}
}

const selectRecentEntries = `
	SELECT property_id, reservation_code, submission_id, result, warning, submitted_at
	FROM siba_submission_journal
	WHERE property_id = $1 AND submitted_at >= $2
	ORDER BY submitted_at DESC`

// Entry is one journal row as read back for reconciliation.
type Entry struct {
	PropertyID      int64
	ReservationCode string
	SubmissionID    string
	Result          string
	Warning         string
	SubmittedAt     time.Time
}

// RecentEntries reads the journal rows for a property since the given
// time, newest first. Unlike Record, read failures are returned: callers
// asking for history can handle absence themselves.
func (j *Journal) RecentEntries(ctx context.Context, propertyID int64, since time.Time) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, selectRecentEntries, propertyID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PropertyID, &e.ReservationCode, &e.SubmissionID, &e.Result, &e.Warning, &e.SubmittedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
