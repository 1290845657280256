package submitregistration

import "siba-workers/internal/models"

type Input struct {
	PropertyID   int64                   `json:"propertyId"`
	Reservation  models.RawReservation   `json:"reservationData,omitempty"`
	Reservations []models.RawReservation `json:"reservations,omitempty"`
}

type Output struct {
	Outcome  *models.SubmissionOutcome  `json:"submissionOutcome,omitempty"`
	Outcomes []models.SubmissionOutcome `json:"submissionOutcomes,omitempty"`
}
