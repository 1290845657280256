// Package localtax talks to the local-tax platform, the system of record
// for SIBA guest registrations. It serves reservation history, remembers
// when a property last submitted, validates and accepts new registrations
// and keeps a per-property status log.
package localtax

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"siba-workers/internal/common/config"
	"siba-workers/internal/common/errors"
	commonhttp "siba-workers/internal/common/http"
	"siba-workers/internal/common/logger"
	"siba-workers/internal/common/metrics"
	"siba-workers/internal/models"
	"siba-workers/internal/siba/fieldmap"
)

const gatewayName = "local_tax"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *commonhttp.Client
	log        logger.Logger
}

// RegistrationPayload is the body sent for both validation and submission.
type RegistrationPayload struct {
	PropertyID      int64  `json:"propertyId"`
	ReservationCode string `json:"reservationCode"`
	GuestName       string `json:"guestName"`
	CheckIn         string `json:"checkIn"`
	CheckOut        string `json:"checkOut"`
	Adults          int    `json:"adults"`
	Children        int    `json:"children"`
}

type validateResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type submitResponse struct {
	SubmissionID string `json:"submissionId"`
	Status       string `json:"status"`
}

func NewClient(cfg config.GatewayConfig, log logger.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: commonhttp.NewClient(timeout),
		log:        log,
	}
}

// ListReservations fetches the registration records the tax platform
// holds for a property within the given window. The platform returns a
// bare JSON array.
func (c *Client) ListReservations(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) ([]models.Reservation, error) {
	url := fmt.Sprintf("%s/siba/reservations?propertyId=%d&dateStart=%s&dateEnd=%s",
		c.baseURL, propertyID, dateStart.Format("2006-01-02"), dateEnd.Format("2006-01-02"))

	start := time.Now()
	body, err := c.do(ctx, http.MethodGet, url, nil)
	metrics.GatewayRequestDuration.WithLabelValues(gatewayName, "list_reservations").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_reservations", "error").Inc()
		return nil, err
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(body, &items); err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_reservations", "malformed").Inc()
		return nil, errors.NewGatewayMalformedError(gatewayName, fmt.Sprintf("expected JSON array: %v", err))
	}

	reservations := make([]models.Reservation, 0, len(items))
	for _, raw := range items {
		res, ok := fieldmap.Normalize(models.RawReservation(raw), models.SourceLocalTax)
		if !ok {
			continue
		}
		reservations = append(reservations, res)
	}

	metrics.GatewayRequests.WithLabelValues(gatewayName, "list_reservations", "success").Inc()
	return reservations, nil
}

// LastSubmissionDate asks the platform when the property last submitted a
// registration. A property with no history returns nil without error.
func (c *Client) LastSubmissionDate(ctx context.Context, propertyID int64) (*time.Time, error) {
	url := fmt.Sprintf("%s/siba/properties/%d/last-submission", c.baseURL, propertyID)

	start := time.Now()
	body, err := c.do(ctx, http.MethodGet, url, nil)
	metrics.GatewayRequestDuration.WithLabelValues(gatewayName, "last_submission").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "last_submission", "error").Inc()
		return nil, err
	}

	var result struct {
		LastSibaDate interface{} `json:"lastSibaDate"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "last_submission", "malformed").Inc()
		return nil, errors.NewGatewayMalformedError(gatewayName, fmt.Sprintf("invalid JSON: %v", err))
	}

	metrics.GatewayRequests.WithLabelValues(gatewayName, "last_submission", "success").Inc()

	if result.LastSibaDate == nil {
		return nil, nil
	}
	ts, ok := fieldmap.ParseDate(result.LastSibaDate)
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

// ValidateRegistration runs the platform's pre-submission checks without
// committing anything.
func (c *Client) ValidateRegistration(ctx context.Context, payload RegistrationPayload) (*models.ValidationResult, error) {
	url := fmt.Sprintf("%s/siba/validate", c.baseURL)

	start := time.Now()
	body, err := c.do(ctx, http.MethodPost, url, payload)
	metrics.GatewayRequestDuration.WithLabelValues(gatewayName, "validate").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "validate", "error").Inc()
		return nil, err
	}

	var resp validateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "validate", "malformed").Inc()
		return nil, errors.NewGatewayMalformedError(gatewayName, fmt.Sprintf("invalid JSON: %v", err))
	}

	metrics.GatewayRequests.WithLabelValues(gatewayName, "validate", "success").Inc()
	return &models.ValidationResult{
		IsValid:         resp.Valid,
		Errors:          resp.Errors,
		Warnings:        resp.Warnings,
		ReservationCode: payload.ReservationCode,
	}, nil
}

// SendRegistration submits a guest registration. A response without an
// accepted status is a rejection, distinct from the platform being down.
func (c *Client) SendRegistration(ctx context.Context, payload RegistrationPayload) (string, error) {
	url := fmt.Sprintf("%s/siba/submissions", c.baseURL)

	start := time.Now()
	body, err := c.do(ctx, http.MethodPost, url, payload)
	metrics.GatewayRequestDuration.WithLabelValues(gatewayName, "submit").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "submit", "error").Inc()
		return "", err
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "submit", "malformed").Inc()
		return "", errors.NewGatewayMalformedError(gatewayName, fmt.Sprintf("invalid JSON: %v", err))
	}

	if resp.Status != "" && resp.Status != "accepted" && resp.Status != "submitted" {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "submit", "rejected").Inc()
		return "", errors.NewSubmissionRejectedError(resp.Status)
	}
	if resp.SubmissionID == "" {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "submit", "malformed").Inc()
		return "", errors.NewGatewayMalformedError(gatewayName, "submission accepted without an id")
	}

	metrics.GatewayRequests.WithLabelValues(gatewayName, "submit", "success").Inc()
	return resp.SubmissionID, nil
}

// WriteStatusLog records a submission event against the property on the
// platform side. The log is informational only, so failures are logged
// and swallowed rather than surfaced to the caller.
func (c *Client) WriteStatusLog(ctx context.Context, propertyID int64, submissionID, result string) {
	url := fmt.Sprintf("%s/siba/properties/%d/status-log", c.baseURL, propertyID)

	payload := map[string]interface{}{
		"submissionId": submissionID,
		"result":       result,
		"recordedAt":   time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := c.do(ctx, http.MethodPost, url, payload); err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "status_log", "error").Inc()
		c.log.Warn("Failed to write submission status log", map[string]interface{}{
			"property_id":   propertyID,
			"submission_id": submissionID,
			"error":         err.Error(),
		})
		return
	}
	metrics.GatewayRequests.WithLabelValues(gatewayName, "status_log", "success").Inc()
}

func (c *Client) do(ctx context.Context, method, url string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.NewGatewayTimeoutError(gatewayName, err)
		}
		return nil, errors.NewGatewayUnavailableError(gatewayName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.NewGatewayUnavailableError(gatewayName,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	return body, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
