// Package reconcile matches reservations across the two upstream
// platforms, which share no common identifier. Matching is deliberately
// forgiving: a case-insensitive substring on the guest name plus exact
// calendar-day stay dates, first hit wins. Resolved codes are cached
// briefly in Redis since the same booking tends to be looked up several
// times while an owner works through a registration.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"siba-workers/internal/common/logger"
	"siba-workers/internal/models"
	"siba-workers/internal/siba/fieldmap"
)

const codeCacheTTL = 15 * time.Minute

// CodeLookupGateway is the upstream that holds reservation codes.
type CodeLookupGateway interface {
	ListReservations(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) ([]models.Reservation, error)
}

type Reconciler struct {
	gateway      CodeLookupGateway
	cache        *redis.Client
	lookbackDays int
	log          logger.Logger

	now func() time.Time
}

// NewReconciler builds a reconciler. The cache may be nil, in which case
// every lookup goes to the gateway.
func NewReconciler(gateway CodeLookupGateway, cache *redis.Client, lookbackDays int, log logger.Logger) *Reconciler {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &Reconciler{
		gateway:      gateway,
		cache:        cache,
		lookbackDays: lookbackDays,
		log:          log,
		now:          time.Now,
	}
}

// FindReservationCode resolves the upstream code for a stay described by
// guest name and exact dates. Resolution is best-effort: a gateway
// failure or no match both come back as an empty code, never an error.
func (r *Reconciler) FindReservationCode(ctx context.Context, propertyID int64, guestName string, checkIn, checkOut time.Time) string {
	key := cacheKey(propertyID, guestName, checkIn, checkOut)

	if r.cache != nil {
		if code, err := r.cache.Get(ctx, key).Result(); err == nil && code != "" {
			return code
		}
	}

	now := r.now()
	reservations, err := r.gateway.ListReservations(ctx, propertyID, now.AddDate(0, 0, -r.lookbackDays), now)
	if err != nil {
		r.log.Warn("Reservation lookup failed during code resolution", map[string]interface{}{
			"property_id": propertyID,
			"guest_name":  guestName,
			"error":       err.Error(),
		})
		return ""
	}

	needle := strings.ToLower(strings.TrimSpace(guestName))
	for _, res := range reservations {
		if res.Code == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(res.GuestName), needle) {
			continue
		}
		if !fieldmap.SameDay(res.CheckIn, checkIn) || !fieldmap.SameDay(res.CheckOut, checkOut) {
			continue
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, key, res.Code, codeCacheTTL).Err(); err != nil {
				r.log.Warn("Failed to cache resolved reservation code", map[string]interface{}{
					"property_id": propertyID,
					"error":       err.Error(),
				})
			}
		}
		return res.Code
	}

	return ""
}

func cacheKey(propertyID int64, guestName string, checkIn, checkOut time.Time) string {
	return fmt.Sprintf("siba:code:%d:%s:%s:%s",
		propertyID,
		strings.ToLower(strings.TrimSpace(guestName)),
		checkIn.Format("2006-01-02"),
		checkOut.Format("2006-01-02"))
}
