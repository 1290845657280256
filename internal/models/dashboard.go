package models

import "time"

// Flag drives dashboard sort priority and summary counts.
type Flag string

const (
	FlagOverdue       Flag = "overdue"
	FlagDueSoon       Flag = "due_soon"
	FlagCompliant     Flag = "compliant"
	FlagError         Flag = "error"
	FlagPending       Flag = "pending"
	FlagLowCompliance Flag = "low_compliance"
)

// FlagPriority orders entries on the dashboard: attention-needed first,
// unresolvable last. Secondary flags never drive the sort.
func FlagPriority(f Flag) int {
	switch f {
	case FlagOverdue:
		return 0
	case FlagDueSoon:
		return 1
	case FlagCompliant:
		return 2
	case FlagError:
		return 3
	default:
		return 4
	}
}

// DashboardEntry is one property's aggregate, constructed fresh on each
// dashboard request.
type DashboardEntry struct {
	PropertyID         int64      `json:"propertyId"`
	PropertyName       string     `json:"propertyName"`
	SIBAStatus         StatusKind `json:"sibaStatus"`
	LastSubmission     *time.Time `json:"lastSubmission"`
	NextDue            *time.Time `json:"nextDue"`
	DaysUntilDue       int        `json:"daysUntilDue"`
	TotalReservations  int        `json:"totalReservations"`
	PendingSubmissions int        `json:"pendingSubmissions"`
	OverdueSubmissions int        `json:"overdueSubmissions"`
	ComplianceRate     int        `json:"complianceRate"`
	Flags              []Flag     `json:"flags"`
}

// PrimaryFlag returns the flag the sort runs on.
func (e DashboardEntry) PrimaryFlag() Flag {
	if len(e.Flags) == 0 {
		return FlagError
	}
	return e.Flags[0]
}

// DashboardSummary counts properties per flag over the final flagged list.
type DashboardSummary struct {
	TotalProperties int       `json:"totalProperties"`
	Overdue         int       `json:"overdue"`
	DueSoon         int       `json:"dueSoon"`
	Compliant       int       `json:"compliant"`
	Errors          int       `json:"errors"`
	Pending         int       `json:"pending"`
	LowCompliance   int       `json:"lowCompliance"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Dashboard is the full fleet view.
type Dashboard struct {
	Data    []DashboardEntry `json:"data"`
	Summary DashboardSummary `json:"summary"`
}
