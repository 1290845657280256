package models

import "time"

// Source systems a reservation can originate from. The two vendors use
// different field names and identifiers for the same booking, so every
// normalized record keeps its origin.
const (
	SourceChannelManager = "channel_manager"
	SourceLocalTax       = "local_tax"
)

// RawReservation is a reservation exactly as an upstream returned it.
// All field-name-variant handling happens at the gateway-adapter boundary;
// nothing outside the adapters and the fieldmap package should dig into one.
type RawReservation map[string]interface{}

// Reservation is the normalized view the siba core computes on. Records
// lacking both stay dates are unusable and dropped at the adapter boundary.
type Reservation struct {
	GuestName string    `json:"guestName"`
	CheckIn   time.Time `json:"checkIn"`
	CheckOut  time.Time `json:"checkOut"`
	Adults    int       `json:"adults"`
	Children  int       `json:"children"`
	Code      string    `json:"reservationCode,omitempty"`
	Source    string    `json:"source,omitempty"`

	// Raw is kept so the status resolver can scan vendor-specific
	// submission-date fields the normalization does not carry.
	Raw RawReservation `json:"-"`
}

// TotalGuests returns the full head count for the stay.
func (r Reservation) TotalGuests() int {
	return r.Adults + r.Children
}

// HasStay reports whether both stay dates are present and ordered.
func (r Reservation) HasStay() bool {
	return !r.CheckIn.IsZero() && !r.CheckOut.IsZero() && r.CheckIn.Before(r.CheckOut)
}
