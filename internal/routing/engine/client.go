// Package engine provides an HTTP/JSON client for the public-transit routing
// service.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/preference"
	"github.com/wslny/wslny/internal/provider"
	"github.com/wslny/wslny/internal/provider/resilience"
	"github.com/wslny/wslny/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "routing-engine"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the routing engine client.
type ClientConfig struct {
	// BaseURL is the routing service base URL (required).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with single-attempt defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a routing engine API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

var _ routing.Provider = (*Client)(nil)

// NewClient creates a new routing engine client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("routing engine: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetRoute requests routes between two points. The response shape is passed
// through as-is; callers use Result.Multi to tell the shapes apart.
func (c *Client) GetRoute(ctx context.Context, origin, destination geo.Point, mode preference.Filter) (*routing.Result, error) {
	if !mode.Valid() {
		mode = preference.Optimal
	}

	body, err := json.Marshal(routeRequest{
		Origin:      wirePoint{Lat: origin.Lat, Lon: origin.Lon},
		Destination: wirePoint{Lat: destination.Lat, Lon: destination.Lon},
		Mode:        mode.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/route", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("mode", mode.String()).
		Float64("origin_lat", origin.Lat).
		Float64("origin_lon", origin.Lon).
		Float64("dest_lat", destination.Lat).
		Float64("dest_lon", destination.Lon).
		Msg("requesting route from routing engine")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.FromTransport(ProviderName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, provider.FromTransport(ProviderName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, provider.FromResponse(ProviderName, resp.StatusCode, respBody)
	}

	var wire routeResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, provider.NewError(ProviderName, provider.CodeUnknown, "malformed routing response")
	}

	result, err := wire.toResult()
	if err != nil {
		return nil, provider.NewError(ProviderName, provider.CodeUnknown, err.Error())
	}

	c.logger.Debug().
		Bool("multi", result.Multi()).
		Int("option_count", len(result.Options)).
		Int("step_count", len(result.Steps)).
		Msg("received route from routing engine")

	return result, nil
}
