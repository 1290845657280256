// Package status derives a property's registration compliance status from
// the best evidence the upstream platforms can offer. Evidence quality
// varies wildly between properties, so resolution runs an ordered fallback
// chain and always returns a renderable result: total upstream failure is
// reported as the most conservative status, never as an error.
package status

import (
	"context"
	"fmt"
	"time"

	"siba-workers/internal/common/config"
	"siba-workers/internal/common/logger"
	"siba-workers/internal/common/metrics"
	"siba-workers/internal/models"
	"siba-workers/internal/siba/fieldmap"
)

// LocalTaxGateway is the slice of the tax platform the resolver needs.
type LocalTaxGateway interface {
	LastSubmissionDate(ctx context.Context, propertyID int64) (*time.Time, error)
	ListReservations(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) ([]models.Reservation, error)
}

// ChannelManagerGateway is the slice of the channel manager the resolver needs.
type ChannelManagerGateway interface {
	ListReservations(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) ([]models.Reservation, error)
}

type Resolver struct {
	channelManager ChannelManagerGateway
	localTax       LocalTaxGateway
	policy         config.PolicyConfig
	log            logger.Logger

	// now is swappable so classification boundaries can be pinned in tests.
	now func() time.Time
}

func NewResolver(cm ChannelManagerGateway, lt LocalTaxGateway, policy config.PolicyConfig, log logger.Logger) *Resolver {
	return &Resolver{
		channelManager: cm,
		localTax:       lt,
		policy:         policy,
		log:            log,
		now:            time.Now,
	}
}

// evidence is the outcome of the acquisition chain.
type evidence struct {
	lastSubmission time.Time
	estimated      bool
	source         models.DataSource
	method         string
}

// Resolve derives the compliance status for one property. It never
// returns an error: any failure, panic included, collapses into an
// overdue status with DataSource marked as degraded.
func (r *Resolver) Resolve(ctx context.Context, propertyID int64) (result models.ComplianceStatus) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Panic during status resolution", map[string]interface{}{
				"property_id": propertyID,
				"panic":       fmt.Sprintf("%v", rec),
			})
			result = r.degradedStatus(propertyID, fmt.Sprintf("status resolution failed: %v", rec))
		}
	}()

	ev := r.acquireEvidence(ctx, propertyID)
	result = r.classify(propertyID, ev)

	metrics.StatusResolved.WithLabelValues(string(result.Status), string(result.DataSource)).Inc()

	r.log.Info("Resolved compliance status", map[string]interface{}{
		"property_id":     propertyID,
		"status":          string(result.Status),
		"data_source":     string(result.DataSource),
		"evidence_method": ev.method,
		"days_until_due":  result.DaysUntilDue,
	})
	return result
}

// BulkResolve resolves many properties sequentially. One property's
// degradation never affects another; the resolver itself cannot fail.
func (r *Resolver) BulkResolve(ctx context.Context, propertyIDs []int64) []models.ComplianceStatus {
	statuses := make([]models.ComplianceStatus, 0, len(propertyIDs))
	for _, id := range propertyIDs {
		statuses = append(statuses, r.Resolve(ctx, id))
	}
	return statuses
}

// acquireEvidence walks the fallback chain and always returns an anchor
// date, degrading in quality at each step:
//
//  1. the tax platform's own record of the last submission
//  2. a submission timestamp buried in raw reservation fields
//  3. most recent past checkout plus one day, as an estimate
//  4. a synthesized anchor roughly one month back, pinned to the 15th
func (r *Resolver) acquireEvidence(ctx context.Context, propertyID int64) evidence {
	now := r.now()

	if ts, err := r.localTax.LastSubmissionDate(ctx, propertyID); err == nil && ts != nil {
		return evidence{lastSubmission: *ts, source: models.DataSourceAPI, method: "gateway_record"}
	} else if err != nil {
		r.log.Warn("Last-submission lookup failed, scanning reservations", map[string]interface{}{
			"property_id": propertyID,
			"error":       err.Error(),
		})
	}

	reservations := r.fetchReservations(ctx, propertyID)

	fields := fieldmap.SubmissionDateFields(r.policy.ExtraSubmissionDateFields)
	if ts, ok := fieldmap.LatestSubmissionDate(reservations, fields); ok {
		return evidence{lastSubmission: ts, source: models.DataSourceAPI, method: "field_scan"}
	}

	if ts, ok := r.estimateFromCheckouts(reservations, now); ok {
		return evidence{lastSubmission: ts, estimated: true, source: models.DataSourceAPI, method: "checkout_estimate"}
	}

	return evidence{
		lastSubmission: placeholderAnchor(now),
		estimated:      true,
		source:         models.DataSourceError,
		method:         "placeholder",
	}
}

// fetchReservations merges the lookback window from both platforms.
// A gateway failure yields that gateway's share as empty, nothing more.
func (r *Resolver) fetchReservations(ctx context.Context, propertyID int64) []models.Reservation {
	now := r.now()
	start := now.AddDate(0, 0, -r.lookbackDays())

	var merged []models.Reservation

	cmRes, err := r.channelManager.ListReservations(ctx, propertyID, start, now)
	if err != nil {
		r.log.Warn("Channel manager reservation fetch failed", map[string]interface{}{
			"property_id": propertyID,
			"error":       err.Error(),
		})
	} else {
		merged = append(merged, cmRes...)
	}

	ltRes, err := r.localTax.ListReservations(ctx, propertyID, start, now)
	if err != nil {
		r.log.Warn("Local tax reservation fetch failed", map[string]interface{}{
			"property_id": propertyID,
			"error":       err.Error(),
		})
	} else {
		merged = append(merged, ltRes...)
	}

	return merged
}

// estimateFromCheckouts takes the most recent checkout inside the
// lookback window and treats the day after it as the submission date.
// An estimate landing in the future is discarded outright.
func (r *Resolver) estimateFromCheckouts(reservations []models.Reservation, now time.Time) (time.Time, bool) {
	windowStart := now.AddDate(0, 0, -r.lookbackDays())

	var latest time.Time
	found := false
	for _, res := range reservations {
		if res.CheckOut.IsZero() || res.CheckOut.After(now) || res.CheckOut.Before(windowStart) {
			continue
		}
		if !found || res.CheckOut.After(latest) {
			latest = res.CheckOut
			found = true
		}
	}
	if !found {
		return time.Time{}, false
	}

	estimate := latest.AddDate(0, 0, 1)
	if estimate.After(now) {
		return time.Time{}, false
	}
	return estimate, true
}

// placeholderAnchor gives downstream date math something to stand on when
// no evidence exists at all: one month back, pinned to the 15th.
func placeholderAnchor(now time.Time) time.Time {
	anchor := now.AddDate(0, -1, 0)
	return time.Date(anchor.Year(), anchor.Month(), 15, 0, 0, 0, 0, anchor.Location())
}

// classify turns an evidence anchor into a status. Status is a pure
// function of daysUntilDue; the thresholds come from policy.
func (r *Resolver) classify(propertyID int64, ev evidence) models.ComplianceStatus {
	now := r.now()

	last := ev.lastSubmission
	nextDue := last.AddDate(0, r.intervalMonths(), 0)

	daysSince := wholeDays(now.Sub(last))
	daysUntil := wholeDays(nextDue.Sub(now))

	var kind models.StatusKind
	var message string
	switch {
	case daysUntil > r.dueSoonDays():
		kind = models.StatusOnTime
		message = fmt.Sprintf("Next submission due in %d days", daysUntil)
	case daysUntil > 0:
		kind = models.StatusDueSoon
		message = fmt.Sprintf("Submission due within %d days", daysUntil)
	default:
		kind = models.StatusOverdue
		message = fmt.Sprintf("Submission overdue by %d days", -daysUntil)
	}

	// A synthesized anchor means we found nothing at all. Whatever the
	// date math says, report the most conservative status.
	if ev.source == models.DataSourceError {
		kind = models.StatusOverdue
		message = "No submission evidence found; using synthesized anchor."
	} else if ev.estimated {
		message = "Last submission date estimated from checkout activity. " + message
	}

	return models.ComplianceStatus{
		PropertyID:          propertyID,
		Status:              kind,
		LastSubmission:      &last,
		NextDue:             nextDue,
		DaysSinceSubmission: daysSince,
		DaysUntilDue:        daysUntil,
		DataSource:          ev.source,
		Estimated:           ev.estimated,
		Message:             message,
	}
}

// degradedStatus is the conservative answer for total resolution failure.
func (r *Resolver) degradedStatus(propertyID int64, message string) models.ComplianceStatus {
	metrics.StatusResolved.WithLabelValues(string(models.StatusOverdue), string(models.DataSourceError)).Inc()
	return models.ComplianceStatus{
		PropertyID: propertyID,
		Status:     models.StatusOverdue,
		DataSource: models.DataSourceError,
		Message:    message,
	}
}

func (r *Resolver) lookbackDays() int {
	if r.policy.LookbackDays > 0 {
		return r.policy.LookbackDays
	}
	return 90
}

func (r *Resolver) dueSoonDays() int {
	if r.policy.DueSoonDays > 0 {
		return r.policy.DueSoonDays
	}
	return 7
}

func (r *Resolver) intervalMonths() int {
	if r.policy.SubmissionIntervalMonths > 0 {
		return r.policy.SubmissionIntervalMonths
	}
	return 1
}

func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}
