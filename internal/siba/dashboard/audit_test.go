package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/models"
)

func TestValidateSnapshotAcceptsWellFormedDoc(t *testing.T) {
	payload := []byte(`{
		"generatedAt": "2026-07-20T12:00:00Z",
		"totalProperties": 2,
		"overdue": 1,
		"dueSoon": 0,
		"compliant": 1,
		"errors": 0,
		"entries": [
			{"propertyId": 1001, "sibaStatus": "overdue", "daysUntilDue": -3, "complianceRate": 50, "flags": ["overdue"]},
			{"propertyId": 1002, "sibaStatus": "on_time", "daysUntilDue": 20, "complianceRate": 100, "flags": ["compliant"]}
		]
	}`)

	assert.NoError(t, validateSnapshot(payload))
}

func TestValidateSnapshotRejectsMissingFields(t *testing.T) {
	payload := []byte(`{"generatedAt": "2026-07-20T12:00:00Z", "entries": []}`)

	assert.Error(t, validateSnapshot(payload))
}

func TestValidateSnapshotRejectsMalformedEntry(t *testing.T) {
	payload := []byte(`{
		"generatedAt": "2026-07-20T12:00:00Z",
		"totalProperties": 1,
		"overdue": 0,
		"dueSoon": 0,
		"compliant": 0,
		"errors": 0,
		"entries": [{"daysUntilDue": 3}]
	}`)

	assert.Error(t, validateSnapshot(payload))
}

func TestIndexSnapshotNilClientIsSafe(t *testing.T) {
	indexer := NewAuditIndexer(nil, logger.NewNoOpLogger())
	indexer.IndexSnapshot(context.Background(), models.Dashboard{
		Summary: models.DashboardSummary{GeneratedAt: time.Now()},
	})

	var nilIndexer *AuditIndexer
	nilIndexer.IndexSnapshot(context.Background(), models.Dashboard{})
}
