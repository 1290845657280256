package models

import "time"

// StatusKind classifies how current a property's guest registration is.
type StatusKind string

const (
	StatusOnTime  StatusKind = "on_time"
	StatusDueSoon StatusKind = "due_soon"
	StatusOverdue StatusKind = "overdue"
	StatusUnknown StatusKind = "unknown"
)

// DataSource tells callers whether a status rests on real upstream
// evidence or on a synthesized degraded anchor.
type DataSource string

const (
	DataSourceAPI   DataSource = "api"
	DataSourceError DataSource = "error"
)

// ComplianceStatus is recomputed on every read and never cached beyond
// the request that asked for it.
type ComplianceStatus struct {
	PropertyID          int64      `json:"propertyId"`
	Status              StatusKind `json:"status"`
	LastSubmission      *time.Time `json:"lastSubmissionDate"`
	NextDue             time.Time  `json:"nextDueDate"`
	DaysSinceSubmission int        `json:"daysSinceSubmission"`
	DaysUntilDue        int        `json:"daysUntilDue"`
	DataSource          DataSource `json:"dataSource"`
	Estimated           bool       `json:"estimated,omitempty"`
	Message             string     `json:"message,omitempty"`
}
