package extraction

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
	"github.com/wslny/wslny/internal/provider"
	"github.com/wslny/wslny/internal/provider/resilience"
)

const (
	// ProviderName identifies the extraction service.
	ProviderName = "extraction"

	// DefaultTimeout is the default per-call timeout.
	DefaultTimeout = 5 * time.Second

	maxResponseBytes = 1 << 20
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the extraction client.
type ClientConfig struct {
	// BaseURL is the service base URL (required).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with single-attempt defaults.
	HTTPClient HTTPDoer

	// Timeout bounds the underlying HTTP client (optional, defaults to 5s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an HTTP/JSON client for the extraction service.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new extraction client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("extraction: base URL is required")
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

// ExtractRoute sends text to the extraction service.
func (c *Client) ExtractRoute(ctx context.Context, text string) (*Result, error) {
	body, err := json.Marshal(extractRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Int("text_length", len(text)).
		Msg("requesting route extraction")

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

	var wire extractResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, provider.NewError(ProviderName, provider.CodeUnknown, "malformed extraction response")
	}

	result := wire.toResult()

	c.logger.Debug().
		Str("intent", result.Intent).
		Bool("has_origin", result.HasOrigin()).
		Bool("has_destination", result.HasDestination()).
		Msg("received route extraction")

	return result, nil
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	FromLocation    string           `json:"from_location"`
	ToLocation      string           `json:"to_location"`
	Intent          string           `json:"intent"`
	FromCoordinates *wireCoordinates `json:"from_coordinates"`
	ToCoordinates   *wireCoordinates `json:"to_coordinates"`
}

type wireCoordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// point returns nil unless both values are present and in range.
func (w *wireCoordinates) point() *geo.Point {
	if w == nil || w.Latitude == nil || w.Longitude == nil {
		return nil
	}
	p := geo.Point{Lat: *w.Latitude, Lon: *w.Longitude}
	if !p.Valid() {
		return nil
	}
	return &p
}

func (w *extractResponse) toResult() *Result {
	return &Result{
		FromLocation: strings.TrimSpace(w.FromLocation),
		ToLocation:   strings.TrimSpace(w.ToLocation),
		Intent:       strings.TrimSpace(w.Intent),
		FromCoords:   w.FromCoordinates.point(),
		ToCoords:     w.ToCoordinates.point(),
	}
}
