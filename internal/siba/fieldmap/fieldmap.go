// Package fieldmap owns every vendor field-name variant the two upstream
// platforms emit for the same logical reservation fields. The channel
// manager and the local-tax platform disagree on casing, language and
// naming across versions; everything that digs into a raw vendor payload
// goes through the tables here so new variants are a config or table edit,
// not a code hunt.
package fieldmap

import (
	"strings"
	"time"

	"siba-workers/internal/models"
)

// DateField is one (source system, field name) pair checked when hunting
// for a submission timestamp inside raw reservations. An empty Source
// matches records from any system.
type DateField struct {
	Source string
	Field  string
}

// submissionDateFields is checked in order; earlier entries win when two
// candidate fields carry the same timestamp instant.
var submissionDateFields = []DateField{
	{models.SourceLocalTax, "lastSibaDate"},
	{models.SourceLocalTax, "sibaSentDate"},
	{models.SourceLocalTax, "siba_sent_date"},
	{models.SourceLocalTax, "dataEnvioSiba"},
	{models.SourceLocalTax, "dataSiba"},
	{models.SourceLocalTax, "sibaDate"},
	{models.SourceChannelManager, "sibaSubmissionDate"},
	{models.SourceChannelManager, "siba_submission_date"},
	{models.SourceChannelManager, "registrationSentAt"},
	{models.SourceChannelManager, "registration_sent_at"},
	{"", "submissionDate"},
	{"", "submission_date"},
	{"", "sibaSubmittedAt"},
}

var guestNameFields = []string{"guestName", "guest_name", "guestname", "name", "nome", "hospede"}
var checkInFields = []string{"checkIn", "check_in", "checkin", "arrival", "arrivalDate", "dataEntrada", "data_entrada"}
var checkOutFields = []string{"checkOut", "check_out", "checkout", "departure", "departureDate", "dataSaida", "data_saida"}
var adultsFields = []string{"adults", "numAdults", "num_adults", "adultos"}
var childrenFields = []string{"children", "numChildren", "num_children", "criancas"}
var codeFields = []string{"reservationCode", "reservation_code", "code", "bookingCode", "booking_code", "codigoReserva", "resId"}

// SubmissionDateFields returns the built-in table extended with operator
// supplied "source:field" entries (bare "field" matches any source).
func SubmissionDateFields(extra []string) []DateField {
	if len(extra) == 0 {
		return submissionDateFields
	}
	fields := make([]DateField, 0, len(submissionDateFields)+len(extra))
	fields = append(fields, submissionDateFields...)
	for _, e := range extra {
		parts := strings.SplitN(e, ":", 2)
		if len(parts) == 2 {
			fields = append(fields, DateField{Source: parts[0], Field: parts[1]})
		} else if parts[0] != "" {
			fields = append(fields, DateField{Field: parts[0]})
		}
	}
	return fields
}

// LatestSubmissionDate scans the raw payloads of the given reservations
// for any of the candidate fields and returns the most recent parseable
// value across all of them.
func LatestSubmissionDate(reservations []models.Reservation, fields []DateField) (time.Time, bool) {
	var latest time.Time
	found := false

	for _, res := range reservations {
		if res.Raw == nil {
			continue
		}
		for _, f := range fields {
			if f.Source != "" && f.Source != res.Source {
				continue
			}
			val, ok := res.Raw[f.Field]
			if !ok {
				continue
			}
			ts, ok := ParseDate(val)
			if !ok {
				continue
			}
			if !found || ts.After(latest) {
				latest = ts
				found = true
			}
		}
	}

	return latest, found
}

// Normalize maps a raw vendor record onto the typed Reservation the core
// computes on. Records lacking both stay dates are unusable and reported
// as such.
func Normalize(raw models.RawReservation, source string) (models.Reservation, bool) {
	res := models.Reservation{
		Source: source,
		Raw:    raw,
	}

	res.GuestName, _ = GuestName(raw)
	res.CheckIn, _ = CheckIn(raw)
	res.CheckOut, _ = CheckOut(raw)
	res.Adults, _ = Adults(raw)
	res.Children, _ = Children(raw)
	res.Code, _ = Code(raw)

	if res.CheckIn.IsZero() && res.CheckOut.IsZero() {
		return res, false
	}
	return res, true
}

// GuestName extracts the guest name under any known variant.
func GuestName(raw models.RawReservation) (string, bool) {
	return stringField(raw, guestNameFields)
}

// CheckIn extracts the check-in date under any known variant.
func CheckIn(raw models.RawReservation) (time.Time, bool) {
	return dateField(raw, checkInFields)
}

// CheckOut extracts the check-out date under any known variant.
func CheckOut(raw models.RawReservation) (time.Time, bool) {
	return dateField(raw, checkOutFields)
}

// Adults extracts the adult count under any known variant.
func Adults(raw models.RawReservation) (int, bool) {
	return countField(raw, adultsFields)
}

// Children extracts the child count under any known variant.
func Children(raw models.RawReservation) (int, bool) {
	return countField(raw, childrenFields)
}

// Code extracts the external reference code under any known variant.
func Code(raw models.RawReservation) (string, bool) {
	return stringField(raw, codeFields)
}

func stringField(raw models.RawReservation, names []string) (string, bool) {
	for _, name := range names {
		if val, ok := raw[name]; ok {
			if s, ok := val.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}

func dateField(raw models.RawReservation, names []string) (time.Time, bool) {
	for _, name := range names {
		if val, ok := raw[name]; ok {
			if ts, ok := ParseDate(val); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func countField(raw models.RawReservation, names []string) (int, bool) {
	for _, name := range names {
		if val, ok := raw[name]; ok {
			if n, ok := ParseCount(val); ok {
				return n, true
			}
		}
	}
	return 0, false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006", // the local-tax platform's legacy export format
}

// ParseDate accepts the timestamp encodings both vendors are known to
// emit: RFC3339, bare dates, space-separated datetimes, legacy dd/mm/yyyy
// and epoch seconds (JSON numbers arrive as float64).
func ParseDate(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case float64:
		if val <= 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(val), 0).UTC(), true
	case int64:
		if val <= 0 {
			return time.Time{}, false
		}
		return time.Unix(val, 0).UTC(), true
	case time.Time:
		return val, !val.IsZero()
	default:
		return time.Time{}, false
	}
}

// ParseCount accepts the numeric encodings vendors use for guest counts.
func ParseCount(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val < 0 {
			return 0, false
		}
		return int(val), true
	case int:
		if val < 0 {
			return 0, false
		}
		return val, true
	case int64:
		if val < 0 {
			return 0, false
		}
		return int(val), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		n := 0
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0, false
			}
			n = n*10 + int(r-'0')
		}
		return n, true
	default:
		return 0, false
	}
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
