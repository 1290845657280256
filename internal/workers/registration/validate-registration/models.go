package validateregistration

import "siba-workers/internal/models"

// Input carries either one reservation payload or a batch. Reservation
// payloads stay raw: field-name normalization is the validator's job.
type Input struct {
	PropertyID   int64                    `json:"propertyId"`
	Reservation  models.RawReservation    `json:"reservationData,omitempty"`
	Reservations []models.RawReservation  `json:"reservations,omitempty"`
}

type Output struct {
	Result  *models.ValidationResult  `json:"validationResult,omitempty"`
	Results []models.ValidationResult `json:"validationResults,omitempty"`
}
