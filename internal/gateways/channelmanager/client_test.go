package channelmanager

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siba-workers/internal/common/config"
	"siba-workers/internal/common/errors"
)

var (
	windowStart = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.GatewayConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: 2000,
	})
}

func TestListReservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/properties/1001/reservations", r.URL.Path)
		assert.Equal(t, "2026-05-01", r.URL.Query().Get("dateStart"))
		assert.Equal(t, "2026-07-30", r.URL.Query().Get("dateEnd"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": [
			{"guestName": "John Smith", "checkIn": "2026-07-10", "checkOut": "2026-07-14", "adults": 2},
			{"guestName": "No Dates Here"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	reservations, err := client.ListReservations(context.Background(), 1001, windowStart, windowEnd)

	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, "John Smith", reservations[0].GuestName)
	assert.Equal(t, 2, reservations[0].Adults)
	assert.Equal(t, "channel_manager", reservations[0].Source)
}

func TestListReservationsMissingResultField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reservations": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ListReservations(context.Background(), 1001, windowStart, windowEnd)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGatewayMalformed, stdErr.Code)
}

func TestListReservationsResultNotArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": "surprise"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ListReservations(context.Background(), 1001, windowStart, windowEnd)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGatewayMalformed, stdErr.Code)
}

func TestListReservationsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ListReservations(context.Background(), 1001, windowStart, windowEnd)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGatewayUnavailable, stdErr.Code)
}

func TestListReservationsConnectionRefused(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	_, err := client.ListReservations(context.Background(), 1001, windowStart, windowEnd)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGatewayUnavailable, stdErr.Code)
}
