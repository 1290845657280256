// Package catalog talks to the property catalog service that knows which
// properties belong to the managed fleet.
package catalog

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
)

const gatewayName = "catalog"

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

// ListProperties returns the managed fleet.
func (c *Client) ListProperties(ctx context.Context) ([]models.Property, error) {
	url := fmt.Sprintf("%s/properties", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(gatewayName, "list_properties").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_properties", "error").Inc()
		if isTimeout(err) {
			return nil, errors.NewGatewayTimeoutError(gatewayName, err)
		}
		return nil, errors.NewCatalogUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_properties", "error").Inc()
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_properties", "error").Inc()
		return nil, errors.NewCatalogUnavailableError(
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	var result struct {
		Properties []models.Property `json:"properties"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		metrics.GatewayRequests.WithLabelValues(gatewayName, "list_properties", "malformed").Inc()
		return nil, errors.NewGatewayMalformedError(gatewayName, fmt.Sprintf("invalid JSON: %v", err))
	}

	metrics.GatewayRequests.WithLabelValues(gatewayName, "list_properties", "success").Inc()
	return result.Properties, nil
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
