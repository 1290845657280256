package localtax

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siba-workers/internal/common/config"
	"siba-workers/internal/common/errors"
	"siba-workers/internal/common/logger"
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
	}, logger.NewNoOpLogger())
}

func TestListReservationsBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siba/reservations", r.URL.Path)
		assert.Equal(t, "1001", r.URL.Query().Get("propertyId"))
		w.Write([]byte(`[
			{"nome": "Maria Garcia", "dataEntrada": "2026-07-10", "dataSaida": "2026-07-14", "adultos": 2},
			{"guestName": "Ana Costa", "checkIn": "2026-07-01", "checkOut": "2026-07-03"}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	reservations, err := client.ListReservations(context.Background(), 1001, windowStart, windowEnd)

	require.NoError(t, err)
	require.Len(t, reservations, 2)
	assert.Equal(t, "Maria Garcia", reservations[0].GuestName)
	assert.Equal(t, "local_tax", reservations[0].Source)
}

func TestListReservationsObjectInsteadOfArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ListReservations(context.Background(), 1001, windowStart, windowEnd)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGatewayMalformed, stdErr.Code)
}

func TestLastSubmissionDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siba/properties/1001/last-submission", r.URL.Path)
		w.Write([]byte(`{"lastSibaDate": "2026-07-15T00:00:00Z"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ts, err := client.LastSubmissionDate(context.Background(), 1001)

	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, "2026-07-15", ts.Format("2006-01-02"))
}

func TestLastSubmissionDateNoHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lastSibaDate": null}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ts, err := client.LastSubmissionDate(context.Background(), 1001)

	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestValidateRegistration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siba/validate", r.URL.Path)

		var payload RegistrationPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "RES-881", payload.ReservationCode)

		w.Write([]byte(`{"valid": false, "errors": ["guest name required"], "warnings": ["children count missing"]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.ValidateRegistration(context.Background(), RegistrationPayload{
		PropertyID:      1001,
		ReservationCode: "RES-881",
	})

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"guest name required"}, result.Errors)
	assert.Equal(t, []string{"children count missing"}, result.Warnings)
	assert.Equal(t, "RES-881", result.ReservationCode)
}

func TestSendRegistrationAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siba/submissions", r.URL.Path)
		w.Write([]byte(`{"submissionId": "SIBA-2026-4417", "status": "accepted"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	id, err := client.SendRegistration(context.Background(), RegistrationPayload{PropertyID: 1001})

	require.NoError(t, err)
	assert.Equal(t, "SIBA-2026-4417", id)
}

func TestSendRegistrationRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"submissionId": "", "status": "rejected"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SendRegistration(context.Background(), RegistrationPayload{PropertyID: 1001})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSubmissionRejected, stdErr.Code)
}

func TestSendRegistrationPlatformDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SendRegistration(context.Background(), RegistrationPayload{PropertyID: 1001})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeGatewayUnavailable, stdErr.Code)
}

func TestWriteStatusLogSwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	// Must not panic or surface the failure.
	client.WriteStatusLog(context.Background(), 1001, "SIBA-2026-4417", "submitted")
}
