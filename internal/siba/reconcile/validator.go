package reconcile

import (
	"context"
	"fmt"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/gateways/localtax"
	"siba-workers/internal/models"
	"siba-workers/internal/siba/fieldmap"
)

// AdvisoryValidator is the tax platform's pre-submission check. Its
// verdict is advisory only: once basic validation passes, a negative or
// failed authoritative check is downgraded to a warning so a flaky
// secondary system never blocks a registration.
type AdvisoryValidator interface {
	ValidateRegistration(ctx context.Context, payload localtax.RegistrationPayload) (*models.ValidationResult, error)
}

type Validator struct {
	reconciler *Reconciler
	advisory   AdvisoryValidator
	log        logger.Logger
}

func NewValidator(reconciler *Reconciler, advisory AdvisoryValidator, log logger.Logger) *Validator {
	return &Validator{
		reconciler: reconciler,
		advisory:   advisory,
		log:        log,
	}
}

// ValidateForSubmission normalizes a raw reservation payload, applies the
// hard business checks, resolves a reservation code when the input lacks
// one and runs the advisory upstream check. Only the basic checks can
// produce IsValid == false.
func (v *Validator) ValidateForSubmission(ctx context.Context, propertyID int64, raw models.RawReservation) models.ValidationResult {
	result := models.ValidationResult{IsValid: true}

	res, _ := fieldmap.Normalize(raw, "")

	if res.GuestName == "" {
		result.Errors = append(result.Errors, "guest name is required")
	}
	if res.CheckIn.IsZero() {
		result.Errors = append(result.Errors, "check-in date is required")
	}
	if res.CheckOut.IsZero() {
		result.Errors = append(result.Errors, "check-out date is required")
	}
	if _, ok := fieldmap.Adults(raw); !ok {
		result.Errors = append(result.Errors, "adult count is required")
	}
	if !res.CheckIn.IsZero() && !res.CheckOut.IsZero() && !res.CheckIn.Before(res.CheckOut) {
		result.Errors = append(result.Errors, "check-in must be before check-out")
	}
	if res.TotalGuests() == 0 {
		result.Errors = append(result.Errors, "at least one guest is required")
	}

	if len(result.Errors) > 0 {
		result.IsValid = false
		return result
	}

	code := res.Code
	if code == "" {
		code = v.reconciler.FindReservationCode(ctx, propertyID, res.GuestName, res.CheckIn, res.CheckOut)
	}
	result.ReservationCode = code

	if code == "" {
		result.Warnings = append(result.Warnings, "no reservation code could be resolved for this stay")
		return result
	}

	advisory, err := v.advisory.ValidateRegistration(ctx, localtax.RegistrationPayload{
		PropertyID:      propertyID,
		ReservationCode: code,
		GuestName:       res.GuestName,
		CheckIn:         res.CheckIn.Format("2006-01-02"),
		CheckOut:        res.CheckOut.Format("2006-01-02"),
		Adults:          res.Adults,
		Children:        res.Children,
	})
	if err != nil {
		v.log.Warn("Advisory registration check unavailable", map[string]interface{}{
			"property_id":      propertyID,
			"reservation_code": code,
			"error":            err.Error(),
		})
		result.Warnings = append(result.Warnings, fmt.Sprintf("authoritative validation unavailable: %v", err))
		return result
	}

	if !advisory.IsValid {
		result.Warnings = append(result.Warnings, "authoritative validation reported issues")
		result.Warnings = append(result.Warnings, advisory.Errors...)
	}
	result.Warnings = append(result.Warnings, advisory.Warnings...)

	return result
}
