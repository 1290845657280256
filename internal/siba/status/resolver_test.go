package status

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siba-workers/internal/common/config"
	"siba-workers/internal/common/logger"
	"siba-workers/internal/models"
)

type stubLocalTax struct {
	lastSubmission func(ctx context.Context, propertyID int64) (*time.Time, error)
	reservations   func(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error)
}

func (s *stubLocalTax) LastSubmissionDate(ctx context.Context, propertyID int64) (*time.Time, error) {
	if s.lastSubmission == nil {
		return nil, nil
	}
	return s.lastSubmission(ctx, propertyID)
}

func (s *stubLocalTax) ListReservations(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error) {
	if s.reservations == nil {
		return nil, nil
	}
	return s.reservations(ctx, propertyID, start, end)
}

type stubChannelManager struct {
	reservations func(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error)
}

func (s *stubChannelManager) ListReservations(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error) {
	if s.reservations == nil {
		return nil, nil
	}
	return s.reservations(ctx, propertyID, start, end)
}

var testNow = time.Date(2026, 7, 20, 12, 0, 0, 0, time.UTC)

func newTestResolver(cm ChannelManagerGateway, lt LocalTaxGateway) *Resolver {
	r := NewResolver(cm, lt, config.PolicyConfig{}, logger.NewNoOpLogger())
	r.now = func() time.Time { return testNow }
	return r
}

func TestResolveUsesGatewayRecord(t *testing.T) {
	last := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	lt := &stubLocalTax{
		lastSubmission: func(ctx context.Context, propertyID int64) (*time.Time, error) {
			return &last, nil
		},
	}
	resolver := newTestResolver(&stubChannelManager{}, lt)

	status := resolver.Resolve(context.Background(), 1001)

	require.NotNil(t, status.LastSubmission)
	assert.Equal(t, last, *status.LastSubmission)
	assert.Equal(t, models.DataSourceAPI, status.DataSource)
	assert.False(t, status.Estimated)
	// next due 2026-08-10, 20 days out
	assert.Equal(t, models.StatusOnTime, status.Status)
	assert.Equal(t, 20, status.DaysUntilDue)
	assert.Equal(t, 10, status.DaysSinceSubmission)
}

func TestResolveIsIdempotent(t *testing.T) {
	last := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	lt := &stubLocalTax{
		lastSubmission: func(ctx context.Context, propertyID int64) (*time.Time, error) {
			return &last, nil
		},
	}
	resolver := newTestResolver(&stubChannelManager{}, lt)

	first := resolver.Resolve(context.Background(), 1001)
	second := resolver.Resolve(context.Background(), 1001)

	assert.Equal(t, first, second)
}

func TestResolveFallsBackToFieldScan(t *testing.T) {
	lt := &stubLocalTax{
		lastSubmission: func(ctx context.Context, propertyID int64) (*time.Time, error) {
			return nil, fmt.Errorf("gateway down")
		},
		reservations: func(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error) {
			return []models.Reservation{
				{
					Source: models.SourceLocalTax,
					Raw:    models.RawReservation{"lastSibaDate": "2026-07-15"},
				},
			}, nil
		},
	}
	resolver := newTestResolver(&stubChannelManager{}, lt)

	status := resolver.Resolve(context.Background(), 1001)

	require.NotNil(t, status.LastSubmission)
	assert.Equal(t, "2026-07-15", status.LastSubmission.Format("2006-01-02"))
	assert.Equal(t, models.DataSourceAPI, status.DataSource)
	assert.False(t, status.Estimated)
}

func TestResolveEstimatesFromCheckout(t *testing.T) {
	cm := &stubChannelManager{
		reservations: func(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error) {
			return []models.Reservation{
				{
					GuestName: "John Smith",
					CheckIn:   time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
					CheckOut:  time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
				},
				{
					GuestName: "Ana Costa",
					CheckIn:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
					CheckOut:  time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
				},
			}, nil
		},
	}
	resolver := newTestResolver(cm, &stubLocalTax{})

	status := resolver.Resolve(context.Background(), 1001)

	require.NotNil(t, status.LastSubmission)
	// most recent checkout 2026-07-10, plus one day
	assert.Equal(t, "2026-07-11", status.LastSubmission.Format("2006-01-02"))
	assert.True(t, status.Estimated)
	assert.Equal(t, models.DataSourceAPI, status.DataSource)
}

func TestResolveDiscardsFutureCheckoutEstimate(t *testing.T) {
	cm := &stubChannelManager{
		reservations: func(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error) {
			return []models.Reservation{
				{
					GuestName: "Future Guest",
					CheckIn:   time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC),
					CheckOut:  time.Date(2026, 7, 28, 0, 0, 0, 0, time.UTC),
				},
			}, nil
		},
	}
	resolver := newTestResolver(cm, &stubLocalTax{})

	status := resolver.Resolve(context.Background(), 1001)

	// future checkouts are not evidence; falls through to the placeholder
	assert.Equal(t, models.DataSourceError, status.DataSource)
	assert.Equal(t, models.StatusOverdue, status.Status)
	require.NotNil(t, status.LastSubmission)
	assert.Equal(t, 15, status.LastSubmission.Day())
	assert.Equal(t, time.June, status.LastSubmission.Month())
}

func TestResolveGatewayFailuresNeverRaise(t *testing.T) {
	lt := &stubLocalTax{
		lastSubmission: func(ctx context.Context, propertyID int64) (*time.Time, error) {
			return nil, fmt.Errorf("connection refused")
		},
		reservations: func(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	cm := &stubChannelManager{
		reservations: func(ctx context.Context, propertyID int64, start, end time.Time) ([]models.Reservation, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	resolver := newTestResolver(cm, lt)

	status := resolver.Resolve(context.Background(), 1001)

	assert.Equal(t, models.StatusOverdue, status.Status)
	assert.Equal(t, models.DataSourceError, status.DataSource)
}

func TestResolveRecoversFromPanic(t *testing.T) {
	lt := &stubLocalTax{
		lastSubmission: func(ctx context.Context, propertyID int64) (*time.Time, error) {
			panic("upstream client bug")
		},
	}
	resolver := newTestResolver(&stubChannelManager{}, lt)

	status := resolver.Resolve(context.Background(), 1001)

	assert.Equal(t, models.StatusOverdue, status.Status)
	assert.Equal(t, models.DataSourceError, status.DataSource)
	assert.Contains(t, status.Message, "upstream client bug")
}

func TestClassificationBoundaries(t *testing.T) {
	tests := []struct {
		name           string
		lastSubmission time.Time
		want           models.StatusKind
	}{
		// next due = last + 1 month; now is 2026-07-20 12:00 UTC
		{"well ahead", time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC), models.StatusOnTime},      // due 08-15, 25 days
		{"exactly a week", time.Date(2026, 6, 28, 0, 0, 0, 0, time.UTC), models.StatusDueSoon}, // due 07-28, 7 days
		{"one day left", time.Date(2026, 6, 22, 0, 0, 0, 0, time.UTC), models.StatusDueSoon},   // due 07-22, 1 day
		{"due today", time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC), models.StatusOverdue},      // due 07-20, 0 days
		{"long overdue", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), models.StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := tt.lastSubmission
			lt := &stubLocalTax{
				lastSubmission: func(ctx context.Context, propertyID int64) (*time.Time, error) {
					return &last, nil
				},
			}
			resolver := newTestResolver(&stubChannelManager{}, lt)

			status := resolver.Resolve(context.Background(), 1001)
			assert.Equal(t, tt.want, status.Status)
		})
	}
}

func TestBulkResolveIsolatesProperties(t *testing.T) {
	last := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	lt := &stubLocalTax{
		lastSubmission: func(ctx context.Context, propertyID int64) (*time.Time, error) {
			if propertyID == 1002 {
				panic("bad property record")
			}
			return &last, nil
		},
	}
	resolver := newTestResolver(&stubChannelManager{}, lt)

	statuses := resolver.BulkResolve(context.Background(), []int64{1001, 1002, 1003})

	require.Len(t, statuses, 3)
	assert.Equal(t, models.StatusOnTime, statuses[0].Status)
	assert.Equal(t, models.StatusOverdue, statuses[1].Status)
	assert.Equal(t, models.DataSourceError, statuses[1].DataSource)
	assert.Equal(t, models.StatusOnTime, statuses[2].Status)
}
