// Package dashboard aggregates the whole fleet's compliance picture. Each
// property's pipeline runs concurrently and in isolation: one property
// failing, however badly, costs exactly one error-flagged entry and never
// the batch.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"siba-workers/internal/common/config"
	"siba-workers/internal/common/logger"
	"siba-workers/internal/common/metrics"
	"siba-workers/internal/models"
)

// StatusResolver derives one property's compliance status.
type StatusResolver interface {
	Resolve(ctx context.Context, propertyID int64) models.ComplianceStatus
}

// ReservationSource lists a property's reservations over a window.
type ReservationSource interface {
	ListReservations(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) ([]models.Reservation, error)
}

// PropertyCatalog lists the managed fleet.
type PropertyCatalog interface {
	ListProperties(ctx context.Context) ([]models.Property, error)
}

// AuditSink records finished dashboard snapshots. Best-effort.
type AuditSink interface {
	IndexSnapshot(ctx context.Context, dashboard models.Dashboard)
}

type Builder struct {
	catalog        PropertyCatalog
	resolver       StatusResolver
	channelManager ReservationSource
	localTax       ReservationSource
	audit          AuditSink
	policy         config.PolicyConfig
	log            logger.Logger

	now func() time.Time
}

// NewBuilder wires the aggregator. audit may be nil.
func NewBuilder(catalog PropertyCatalog, resolver StatusResolver, cm, lt ReservationSource, audit AuditSink, policy config.PolicyConfig, log logger.Logger) *Builder {
	return &Builder{
		catalog:        catalog,
		resolver:       resolver,
		channelManager: cm,
		localTax:       lt,
		audit:          audit,
		policy:         policy,
		log:            log,
		now:            time.Now,
	}
}

// Build produces the fleet dashboard. It cannot fail: an unreachable
// catalog falls back to the configured fleet, and per-property failures
// become error-flagged entries.
func (b *Builder) Build(ctx context.Context) models.Dashboard {
	start := b.now()
	defer func() {
		metrics.DashboardBuildDuration.Observe(time.Since(start).Seconds())
	}()

	properties := b.fetchFleet(ctx)

	entries := make([]models.DashboardEntry, len(properties))
	var wg sync.WaitGroup
	for i, prop := range properties {
		wg.Add(1)
		go func(i int, prop models.Property) {
			defer wg.Done()
			entries[i] = b.safeBuildEntry(ctx, prop)
		}(i, prop)
	}
	wg.Wait()

	sort.SliceStable(entries, func(i, j int) bool {
		return models.FlagPriority(entries[i].PrimaryFlag()) < models.FlagPriority(entries[j].PrimaryFlag())
	})

	result := models.Dashboard{
		Data:    entries,
		Summary: summarize(entries, b.now()),
	}

	recordFlagGauges(entries)

	if b.audit != nil {
		b.audit.IndexSnapshot(ctx, result)
	}

	b.log.Info("Built fleet dashboard", map[string]interface{}{
		"properties": len(entries),
		"overdue":    result.Summary.Overdue,
		"due_soon":   result.Summary.DueSoon,
		"errors":     result.Summary.Errors,
		"took_ms":    time.Since(start).Milliseconds(),
	})

	return result
}

// fetchFleet asks the catalog for the property list, falling back to the
// configured fleet so the dashboard is never empty.
func (b *Builder) fetchFleet(ctx context.Context) []models.Property {
	properties, err := b.catalog.ListProperties(ctx)
	if err == nil && len(properties) > 0 {
		return properties
	}
	if err != nil {
		b.log.Warn("Property catalog unavailable, using fallback fleet", map[string]interface{}{
			"error": err.Error(),
		})
	}

	fallback := make([]models.Property, 0, len(b.policy.FallbackProperties))
	for _, p := range b.policy.FallbackProperties {
		fallback = append(fallback, models.Property{ID: p.ID, Name: p.Name})
	}
	return fallback
}

func (b *Builder) safeBuildEntry(ctx context.Context, prop models.Property) (entry models.DashboardEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error("Panic while aggregating property", map[string]interface{}{
				"property_id": prop.ID,
				"panic":       fmt.Sprintf("%v", rec),
			})
			entry = models.DashboardEntry{
				PropertyID:     prop.ID,
				PropertyName:   prop.Name,
				SIBAStatus:     models.StatusUnknown,
				ComplianceRate: 0,
				Flags:          []models.Flag{models.FlagError},
			}
		}
	}()
	return b.buildEntry(ctx, prop)
}

func (b *Builder) buildEntry(ctx context.Context, prop models.Property) models.DashboardEntry {
	status := b.resolver.Resolve(ctx, prop.ID)
	reservations := b.fetchReservations(ctx, prop.ID)

	now := b.now()
	pendingWindow := now.AddDate(0, 0, -b.pendingWindowDays())
	graceCutoff := now.AddDate(0, 0, -b.graceDays())

	pending := 0
	overdue := 0
	for _, res := range reservations {
		if res.CheckOut.IsZero() || res.CheckOut.After(now) || res.CheckOut.Before(pendingWindow) {
			continue
		}
		pending++
		if res.CheckOut.Before(graceCutoff) {
			overdue++
		}
	}

	rate := 100
	if pending > 0 {
		rate = int(float64(pending-overdue)/float64(pending)*100 + 0.5)
	}

	entry := models.DashboardEntry{
		PropertyID:         prop.ID,
		PropertyName:       prop.Name,
		SIBAStatus:         status.Status,
		LastSubmission:     status.LastSubmission,
		DaysUntilDue:       status.DaysUntilDue,
		TotalReservations:  len(reservations),
		PendingSubmissions: pending,
		OverdueSubmissions: overdue,
		ComplianceRate:     rate,
	}
	if !status.NextDue.IsZero() {
		nextDue := status.NextDue
		entry.NextDue = &nextDue
	}
	entry.Flags = b.deriveFlags(status, entry)

	return entry
}

// fetchReservations concatenates both platforms' trailing windows. No
// deduplication: overlap is tolerable on an attention-ranking view.
func (b *Builder) fetchReservations(ctx context.Context, propertyID int64) []models.Reservation {
	now := b.now()
	start := now.AddDate(0, 0, -b.lookbackDays())

	var merged []models.Reservation
	for _, source := range []ReservationSource{b.channelManager, b.localTax} {
		if source == nil {
			continue
		}
		res, err := source.ListReservations(ctx, propertyID, start, now)
		if err != nil {
			b.log.Warn("Reservation fetch failed during dashboard build", map[string]interface{}{
				"property_id": propertyID,
				"error":       err.Error(),
			})
			continue
		}
		merged = append(merged, res...)
	}
	return merged
}

// deriveFlags computes the primary flag first (exactly one of overdue,
// due_soon, compliant, error), then the informational extras.
func (b *Builder) deriveFlags(status models.ComplianceStatus, entry models.DashboardEntry) []models.Flag {
	var flags []models.Flag

	switch {
	case status.Status == models.StatusOverdue || entry.OverdueSubmissions > 0:
		flags = append(flags, models.FlagOverdue)
	case status.Status == models.StatusDueSoon || status.DaysUntilDue <= b.dueSoonDays():
		flags = append(flags, models.FlagDueSoon)
	case status.Status == models.StatusOnTime:
		flags = append(flags, models.FlagCompliant)
	default:
		flags = append(flags, models.FlagError)
	}

	if entry.PendingSubmissions > 0 {
		flags = append(flags, models.FlagPending)
	}
	if entry.ComplianceRate < b.lowComplianceThreshold() {
		flags = append(flags, models.FlagLowCompliance)
	}

	return flags
}

func summarize(entries []models.DashboardEntry, now time.Time) models.DashboardSummary {
	summary := models.DashboardSummary{
		TotalProperties: len(entries),
		GeneratedAt:     now,
	}
	for _, entry := range entries {
		for _, flag := range entry.Flags {
			switch flag {
			case models.FlagOverdue:
				summary.Overdue++
			case models.FlagDueSoon:
				summary.DueSoon++
			case models.FlagCompliant:
				summary.Compliant++
			case models.FlagError:
				summary.Errors++
			case models.FlagPending:
				summary.Pending++
			case models.FlagLowCompliance:
				summary.LowCompliance++
			}
		}
	}
	return summary
}

func recordFlagGauges(entries []models.DashboardEntry) {
	counts := map[models.Flag]int{
		models.FlagOverdue:   0,
		models.FlagDueSoon:   0,
		models.FlagCompliant: 0,
		models.FlagError:     0,
	}
	for _, entry := range entries {
		counts[entry.PrimaryFlag()]++
	}
	for flag, count := range counts {
		metrics.DashboardProperties.WithLabelValues(string(flag)).Set(float64(count))
	}
}

func (b *Builder) pendingWindowDays() int {
	if b.policy.PendingWindowDays > 0 {
		return b.policy.PendingWindowDays
	}
	return 30
}

func (b *Builder) graceDays() int {
	if b.policy.GraceDays > 0 {
		return b.policy.GraceDays
	}
	return 7
}

func (b *Builder) lookbackDays() int {
	if b.policy.LookbackDays > 0 {
		return b.policy.LookbackDays
	}
	return 90
}

func (b *Builder) dueSoonDays() int {
	if b.policy.DueSoonDays > 0 {
		return b.policy.DueSoonDays
	}
	return 7
}

func (b *Builder) lowComplianceThreshold() int {
	if b.policy.LowComplianceThreshold > 0 {
		return b.policy.LowComplianceThreshold
	}
	return 80
}
