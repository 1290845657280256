// Package channelmanager talks to the channel manager platform, the
// booking aggregator that holds most reservation inventory. Its API is
// the least stable of the three upstreams: responses are wrapped in a
// "result" envelope that occasionally arrives missing or with the wrong
// shape, which callers must treat as a gateway fault rather than an
// empty fleet.
package channelmanager

import (
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
	"siba-workers/internal/common/metrics"
	"siba-workers/internal/models"
	"siba-workers/internal/siba/fieldmap"
)

const gatewayName = "channel_manager"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *commonhttp.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: commonhttp.NewClient(timeout),
	}
}

// ListReservations fetches the reservations the channel manager holds for
// a property within the given window and normalizes them into typed
// records. Records without any usable stay date are dropped.
func (c *Client) ListReservations(ctx context.Context, propertyID int64, dateStart, dateEnd time.Time) ([]models.Reservation, error) {
	url := fmt.Sprintf("%s/properties/%d/reservations?dateStart=%s&dateEnd=%s",
		c.baseURL, propertyID, dateStart.Format("2006-01-02"), dateEnd.Format("2006-01-02"))

	start := time.Now()
	body, err := c.get(ctx, url)
	metrics.GatewayRequestDuration.WithLabelValues(gatewayName, "list_reservations").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_reservations", "error").Inc()
		return nil, err
	}

	// The envelope must carry a "result" array. Anything else means the
	// platform is misbehaving, not that the property has no bookings.
	var envelope map[string]interface{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_reservations", "malformed").Inc()
		return nil, errors.NewGatewayMalformedError(gatewayName, fmt.Sprintf("invalid JSON: %v", err))
	}

	rawResult, ok := envelope["result"]
	if !ok {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_reservations", "malformed").Inc()
		return nil, errors.NewGatewayMalformedError(gatewayName, "response missing result field")
	}

	items, ok := rawResult.([]interface{})
	if !ok {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_reservations", "malformed").Inc()
		return nil, errors.NewGatewayMalformedError(gatewayName, "result field is not an array")
	}

	reservations := make([]models.Reservation, 0, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		res, ok := fieldmap.Normalize(models.RawReservation(raw), models.SourceChannelManager)
		if !ok {
			continue
		}
		reservations = append(reservations, res)
	}

	metrics.GatewayRequests.WithLabelValues(gatewayName, "list_reservations", "success").Inc()
	return reservations, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
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

	if resp.StatusCode != http.StatusOK {
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
