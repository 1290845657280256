package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/gateways/localtax"
	"siba-workers/internal/models"
)

type stubAdvisory struct {
	result *models.ValidationResult
	err    error
	calls  int
}

func (s *stubAdvisory) ValidateRegistration(ctx context.Context, payload localtax.RegistrationPayload) (*models.ValidationResult, error) {
	s.calls++
	return s.result, s.err
}

func validRawReservation() models.RawReservation {
	return models.RawReservation{
		"guestName": "Maria Garcia",
		"checkIn":   "2025-03-01",
		"checkOut":  "2025-03-05",
		"adults":    float64(2),
	}
}

func newTestValidator(gateway *stubGateway, advisory *stubAdvisory) *Validator {
	r := NewReconciler(gateway, nil, 90, logger.NewNoOpLogger())
	return NewValidator(r, advisory, logger.NewNoOpLogger())
}

func TestValidateForSubmissionHardFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(models.RawReservation)
		wantErr string
	}{
		{"missing guest name", func(r models.RawReservation) { delete(r, "guestName") }, "guest name is required"},
		{"missing check-in", func(r models.RawReservation) { delete(r, "checkIn") }, "check-in date is required"},
		{"missing check-out", func(r models.RawReservation) { delete(r, "checkOut") }, "check-out date is required"},
		{"missing adults", func(r models.RawReservation) { delete(r, "adults") }, "adult count is required"},
		{"inverted stay", func(r models.RawReservation) { r["checkIn"] = "2025-03-09" }, "check-in must be before check-out"},
		{"zero guests", func(r models.RawReservation) { r["adults"] = float64(0) }, "at least one guest is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRawReservation()
			tt.mutate(raw)

			advisory := &stubAdvisory{}
			v := newTestValidator(&stubGateway{}, advisory)

			result := v.ValidateForSubmission(context.Background(), 1001, raw)

			assert.False(t, result.IsValid)
			assert.Contains(t, result.Errors, tt.wantErr)
			// hard failure short-circuits before any upstream call
			assert.Equal(t, 0, advisory.calls)
		})
	}
}

func TestValidateForSubmissionNormalizesVariants(t *testing.T) {
	raw := models.RawReservation{
		"nome":        "Maria Garcia",
		"dataEntrada": "2025-03-01",
		"dataSaida":   "2025-03-05",
		"adultos":     float64(2),
	}

	advisory := &stubAdvisory{result: &models.ValidationResult{IsValid: true}}
	gateway := &stubGateway{reservations: []models.Reservation{mariaGarcia()}}
	v := newTestValidator(gateway, advisory)

	result := v.ValidateForSubmission(context.Background(), 1001, raw)

	assert.True(t, result.IsValid)
	assert.Equal(t, "RES-881", result.ReservationCode)
}

func TestValidateForSubmissionResolvesCode(t *testing.T) {
	advisory := &stubAdvisory{result: &models.ValidationResult{IsValid: true}}
	gateway := &stubGateway{reservations: []models.Reservation{mariaGarcia()}}
	v := newTestValidator(gateway, advisory)

	result := v.ValidateForSubmission(context.Background(), 1001, validRawReservation())

	assert.True(t, result.IsValid)
	assert.Equal(t, "RES-881", result.ReservationCode)
	assert.Equal(t, 1, advisory.calls)
}

func TestValidateForSubmissionExplicitCodeWins(t *testing.T) {
	raw := validRawReservation()
	raw["reservationCode"] = "RES-EXPLICIT"

	advisory := &stubAdvisory{result: &models.ValidationResult{IsValid: true}}
	gateway := &stubGateway{}
	v := newTestValidator(gateway, advisory)

	result := v.ValidateForSubmission(context.Background(), 1001, raw)

	assert.True(t, result.IsValid)
	assert.Equal(t, "RES-EXPLICIT", result.ReservationCode)
	assert.Equal(t, 0, gateway.calls)
}

func TestValidateForSubmissionNoCodeIsWarning(t *testing.T) {
	advisory := &stubAdvisory{}
	v := newTestValidator(&stubGateway{}, advisory)

	result := v.ValidateForSubmission(context.Background(), 1001, validRawReservation())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.ReservationCode)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no reservation code")
	assert.Equal(t, 0, advisory.calls)
}

func TestValidateForSubmissionAdvisoryFailureIsWarning(t *testing.T) {
	advisory := &stubAdvisory{err: fmt.Errorf("platform down")}
	gateway := &stubGateway{reservations: []models.Reservation{mariaGarcia()}}
	v := newTestValidator(gateway, advisory)

	result := v.ValidateForSubmission(context.Background(), 1001, validRawReservation())

	assert.True(t, result.IsValid)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "authoritative validation unavailable")
}

func TestValidateForSubmissionNegativeAdvisoryIsWarning(t *testing.T) {
	advisory := &stubAdvisory{result: &models.ValidationResult{
		IsValid: false,
		Errors:  []string{"document number missing"},
	}}
	gateway := &stubGateway{reservations: []models.Reservation{mariaGarcia()}}
	v := newTestValidator(gateway, advisory)

	result := v.ValidateForSubmission(context.Background(), 1001, validRawReservation())

	assert.True(t, result.IsValid)
	assert.Contains(t, result.Warnings, "authoritative validation reported issues")
	assert.Contains(t, result.Warnings, "document number missing")
}
