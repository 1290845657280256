package submission

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/models"
)

func TestJournalRecordResultClassification(t *testing.T) {
	tests := []struct {
		name    string
		outcome models.SubmissionOutcome
		want    string
	}{
		{"delivered", models.SubmissionOutcome{Success: true, SubmissionID: "SIBA-1"}, "submitted"},
		{"local fallback", models.SubmissionOutcome{Success: true, SubmissionID: "local-1756500000000"}, "local_fallback"},
		{"invalid", models.SubmissionOutcome{Success: false}, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec("INSERT INTO siba_submission_journal").
				WithArgs(sqlmock.AnyArg(), int64(1001), sqlmock.AnyArg(), tt.outcome.SubmissionID, tt.want, sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))

			journal := NewJournal(db, logger.NewNoOpLogger())
			journal.Record(context.Background(), 1001, tt.outcome)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJournalNilReceiverIsSafe(t *testing.T) {
	var journal *Journal
	journal.Record(context.Background(), 1001, models.SubmissionOutcome{})
}

func TestJournalRecentEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	submitted := time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"property_id", "reservation_code", "submission_id", "result", "warning", "submitted_at"}).
		AddRow(int64(1001), "RES-881", "local-1756500000000", "local_fallback", "recorded locally", submitted)

	mock.ExpectQuery("SELECT property_id, reservation_code, submission_id, result, warning, submitted_at").
		WithArgs(int64(1001), sqlmock.AnyArg()).
		WillReturnRows(rows)

	journal := NewJournal(db, logger.NewNoOpLogger())
	entries, err := journal.RecentEntries(context.Background(), 1001, submitted.AddDate(0, 0, -30))

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "RES-881", entries[0].ReservationCode)
	assert.Equal(t, "local_fallback", entries[0].Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
