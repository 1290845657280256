package models

import (
	"strings"
	"time"
)

// LocalSubmissionPrefix marks outcomes that were recorded locally because
// the authoritative path was degraded. Callers needing to distinguish
// "really submitted" from "recorded locally" check this prefix plus the
// Warning field.
const LocalSubmissionPrefix = "local-"

// ValidationResult is the transient product of registration-readiness
// validation. Only genuinely malformed input flips IsValid to false;
// advisory upstream checks land in Warnings.
type ValidationResult struct {
	IsValid         bool     `json:"isValid"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings,omitempty"`
	ReservationCode string   `json:"reservationCode,omitempty"`
}

// SubmissionOutcome is the result of one submission attempt. The
// authoritative record lives in the local-tax platform; this is a view
// object plus a best-effort journal entry.
type SubmissionOutcome struct {
	Success         bool      `json:"success"`
	SubmissionID    string    `json:"submissionId,omitempty"`
	ReservationCode string    `json:"reservationCode,omitempty"`
	Warning         string    `json:"warning,omitempty"`
	Errors          []string  `json:"errors,omitempty"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// IsLocalFallback reports whether the outcome was recorded locally rather
// than delivered to the authority.
func (o SubmissionOutcome) IsLocalFallback() bool {
	return strings.HasPrefix(o.SubmissionID, LocalSubmissionPrefix)
}
