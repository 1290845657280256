package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/xeipuuv/gojsonschema"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/models"
)

const auditIndex = "siba-compliance"

// snapshotSchema guards the audit index against shape drift: a snapshot
// that stops matching is logged and dropped instead of polluting the
// index with documents the reporting queries cannot read.
var snapshotSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"generatedAt", "totalProperties", "overdue", "dueSoon", "compliant", "errors", "entries"},
	"properties": map[string]interface{}{
		"generatedAt":     map[string]interface{}{"type": "string"},
		"totalProperties": map[string]interface{}{"type": "integer"},
		"overdue":         map[string]interface{}{"type": "integer"},
		"dueSoon":         map[string]interface{}{"type": "integer"},
		"compliant":       map[string]interface{}{"type": "integer"},
		"errors":          map[string]interface{}{"type": "integer"},
		"entries": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"propertyId", "sibaStatus", "flags"},
			},
		},
	},
}

// AuditIndexer writes finished dashboard snapshots to Elasticsearch so
// compliance history stays queryable after the fact. Every failure mode
// is absorbed: the dashboard build must not depend on the audit trail.
type AuditIndexer struct {
	client *elasticsearch.Client
	log    logger.Logger
}

func NewAuditIndexer(client *elasticsearch.Client, log logger.Logger) *AuditIndexer {
	return &AuditIndexer{client: client, log: log}
}

type snapshotEntry struct {
	PropertyID     int64         `json:"propertyId"`
	SIBAStatus     string        `json:"sibaStatus"`
	DaysUntilDue   int           `json:"daysUntilDue"`
	ComplianceRate int           `json:"complianceRate"`
	Flags          []models.Flag `json:"flags"`
}

type snapshotDoc struct {
	GeneratedAt     string          `json:"generatedAt"`
	TotalProperties int             `json:"totalProperties"`
	Overdue         int             `json:"overdue"`
	DueSoon         int             `json:"dueSoon"`
	Compliant       int             `json:"compliant"`
	Errors          int             `json:"errors"`
	Entries         []snapshotEntry `json:"entries"`
}

// IndexSnapshot flattens the dashboard into an audit document, checks it
// against the snapshot schema and indexes it.
func (a *AuditIndexer) IndexSnapshot(ctx context.Context, dashboard models.Dashboard) {
	if a == nil || a.client == nil {
		return
	}

	doc := snapshotDoc{
		GeneratedAt:     dashboard.Summary.GeneratedAt.UTC().Format(time.RFC3339),
		TotalProperties: dashboard.Summary.TotalProperties,
		Overdue:         dashboard.Summary.Overdue,
		DueSoon:         dashboard.Summary.DueSoon,
		Compliant:       dashboard.Summary.Compliant,
		Errors:          dashboard.Summary.Errors,
		Entries:         make([]snapshotEntry, 0, len(dashboard.Data)),
	}
	for _, entry := range dashboard.Data {
		doc.Entries = append(doc.Entries, snapshotEntry{
			PropertyID:     entry.PropertyID,
			SIBAStatus:     string(entry.SIBAStatus),
			DaysUntilDue:   entry.DaysUntilDue,
			ComplianceRate: entry.ComplianceRate,
			Flags:          entry.Flags,
		})
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		a.log.Warn("Failed to marshal dashboard snapshot", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := validateSnapshot(payload); err != nil {
		a.log.Warn("Dashboard snapshot failed schema check, not indexing", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	res, err := a.client.Index(
		auditIndex,
		bytes.NewReader(payload),
		a.client.Index.WithContext(ctx),
	)
	if err != nil {
		a.log.Warn("Failed to index dashboard snapshot", map[string]interface{}{"error": err.Error()})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		a.log.Warn("Elasticsearch rejected dashboard snapshot", map[string]interface{}{
			"status": res.Status(),
		})
	}
}

func validateSnapshot(payload []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(snapshotSchema)
	documentLoader := gojsonschema.NewBytesLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("snapshot does not match schema: %v", result.Errors())
	}
	return nil
}
