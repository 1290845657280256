package resolvestatus

import "siba-workers/internal/models"

// Input carries either a single property or a batch. Exactly one of the
// two must be set.
type Input struct {
	PropertyID  int64   `json:"propertyId,omitempty"`
	PropertyIDs []int64 `json:"propertyIds,omitempty"`
}

type Output struct {
	Status   *models.ComplianceStatus `json:"sibaStatus,omitempty"`
	Statuses []models.ComplianceStatus `json:"sibaStatuses,omitempty"`
}
