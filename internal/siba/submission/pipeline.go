// Package submission drives the registration submission workflow. The
// design is never-hard-fail: once a payload passes basic validation the
// pipeline always reports success, degrading to a locally recorded
// outcome with a warning when the authoritative path is unavailable. The
// owner's intent to register is captured either way; true delivery is
// reconciled later from the journal.
package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/common/metrics"
	"siba-workers/internal/gateways/localtax"
	"siba-workers/internal/models"
	"siba-workers/internal/siba/fieldmap"
	"siba-workers/internal/siba/reconcile"
)

// RegistrationGateway is the slice of the tax platform the pipeline uses.
type RegistrationGateway interface {
	SendRegistration(ctx context.Context, payload localtax.RegistrationPayload) (string, error)
	WriteStatusLog(ctx context.Context, propertyID int64, submissionID, result string)
}

type Pipeline struct {
	validator *reconcile.Validator
	gateway   RegistrationGateway
	journal   *Journal
	log       logger.Logger

	now func() time.Time
}

func NewPipeline(validator *reconcile.Validator, gateway RegistrationGateway, journal *Journal, log logger.Logger) *Pipeline {
	return &Pipeline{
		validator: validator,
		gateway:   gateway,
		journal:   journal,
		log:       log,
		now:       time.Now,
	}
}

// Submit runs one registration end to end: validate, resolve a code,
// deliver to the authority. The only path returning Success == false is
// basic validation failure, which makes no network calls past validation.
func (p *Pipeline) Submit(ctx context.Context, propertyID int64, raw models.RawReservation) models.SubmissionOutcome {
	validation := p.validator.ValidateForSubmission(ctx, propertyID, raw)
	if !validation.IsValid {
		metrics.SubmissionOutcomes.WithLabelValues("invalid").Inc()
		outcome := models.SubmissionOutcome{
			Success:     false,
			Errors:      validation.Errors,
			SubmittedAt: p.now(),
		}
		// Rejected attempts are journaled too, but skip the platform-side
		// status log: invalid input must not trigger gateway calls.
		p.journal.Record(ctx, propertyID, outcome)
		return outcome
	}

	code := validation.ReservationCode
	if code == "" {
		outcome := p.localFallback(propertyID, code, "no reservation code could be resolved; submission recorded locally")
		p.finish(ctx, propertyID, outcome)
		return outcome
	}

	res, _ := fieldmap.Normalize(raw, "")
	submissionID, err := p.gateway.SendRegistration(ctx, localtax.RegistrationPayload{
		PropertyID:      propertyID,
		ReservationCode: code,
		GuestName:       res.GuestName,
		CheckIn:         res.CheckIn.Format("2006-01-02"),
		CheckOut:        res.CheckOut.Format("2006-01-02"),
		Adults:          res.Adults,
		Children:        res.Children,
	})
	if err != nil {
		p.log.Warn("Authoritative submission failed, recording locally", map[string]interface{}{
			"property_id":      propertyID,
			"reservation_code": code,
			"error":            err.Error(),
		})
		outcome := p.localFallback(propertyID, code,
			fmt.Sprintf("authoritative submission failed (%v); submission recorded locally", err))
		p.finish(ctx, propertyID, outcome)
		return outcome
	}

	metrics.SubmissionOutcomes.WithLabelValues("submitted").Inc()
	outcome := models.SubmissionOutcome{
		Success:         true,
		SubmissionID:    submissionID,
		ReservationCode: code,
		Warning:         strings.Join(validation.Warnings, "; "),
		SubmittedAt:     p.now(),
	}
	p.finish(ctx, propertyID, outcome)
	return outcome
}

// BulkValidate validates a batch. One item's panic is isolated to that
// item's result.
func (p *Pipeline) BulkValidate(ctx context.Context, propertyID int64, batch []models.RawReservation) []models.ValidationResult {
	results := make([]models.ValidationResult, 0, len(batch))
	for _, raw := range batch {
		results = append(results, p.safeValidate(ctx, propertyID, raw))
	}
	return results
}

// BulkSubmit submits a batch sequentially; each item runs the full
// validate, resolve and submit sequence, and one item's failure never
// aborts the rest.
func (p *Pipeline) BulkSubmit(ctx context.Context, propertyID int64, batch []models.RawReservation) []models.SubmissionOutcome {
	outcomes := make([]models.SubmissionOutcome, 0, len(batch))
	for _, raw := range batch {
		outcomes = append(outcomes, p.safeSubmit(ctx, propertyID, raw))
	}
	return outcomes
}

func (p *Pipeline) safeSubmit(ctx context.Context, propertyID int64, raw models.RawReservation) (outcome models.SubmissionOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("Panic during submission", map[string]interface{}{
				"property_id": propertyID,
				"panic":       fmt.Sprintf("%v", rec),
			})
			metrics.SubmissionOutcomes.WithLabelValues("local_fallback").Inc()
			outcome = models.SubmissionOutcome{
				Success:      true,
				SubmissionID: localSubmissionID(p.now()),
				Warning:      fmt.Sprintf("submission pipeline failed (%v); submission recorded locally", rec),
				SubmittedAt:  p.now(),
			}
		}
	}()
	return p.Submit(ctx, propertyID, raw)
}

func (p *Pipeline) safeValidate(ctx context.Context, propertyID int64, raw models.RawReservation) (result models.ValidationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("Panic during validation", map[string]interface{}{
				"property_id": propertyID,
				"panic":       fmt.Sprintf("%v", rec),
			})
			result = models.ValidationResult{
				IsValid: false,
				Errors:  []string{fmt.Sprintf("validation failed: %v", rec)},
			}
		}
	}()
	return p.validator.ValidateForSubmission(ctx, propertyID, raw)
}

func (p *Pipeline) localFallback(propertyID int64, code, warning string) models.SubmissionOutcome {
	metrics.SubmissionOutcomes.WithLabelValues("local_fallback").Inc()
	return models.SubmissionOutcome{
		Success:         true,
		SubmissionID:    localSubmissionID(p.now()),
		ReservationCode: code,
		Warning:         warning,
		SubmittedAt:     p.now(),
	}
}

// finish performs the post-outcome bookkeeping: journal row and the
// platform-side status log. Both are best-effort.
func (p *Pipeline) finish(ctx context.Context, propertyID int64, outcome models.SubmissionOutcome) {
	p.journal.Record(ctx, propertyID, outcome)

	result := "submitted"
	if outcome.IsLocalFallback() {
		result = "local_fallback"
	}
	p.gateway.WriteStatusLog(ctx, propertyID, outcome.SubmissionID, result)
}

func localSubmissionID(now time.Time) string {
	return fmt.Sprintf("%s%d", models.LocalSubmissionPrefix, now.UnixMilli())
}
