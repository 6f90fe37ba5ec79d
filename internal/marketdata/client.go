// Package marketdata provides the client for the external ranked-listing
// provider. One call fetches the whole batch; the pipeline performs no other
// network activity.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"tokenpulse/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://pro-api.coinmarketcap.com"
	DefaultTimeout = 30 * time.Second

	apiKeyHeader  = "X-CMC_PRO_API_KEY"
	listingsPath  = "/v1/cryptocurrency/listings/latest"
	quoteCurrency = "USD"
)

// ProviderError is a failure reported by the provider itself, either as a
// non-2xx transport status or a non-zero error code in the status envelope.
type ProviderError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error %d (http %d): %s", e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("provider error %d (http %d)", e.Code, e.HTTPStatus)
}

// Client fetches ranked listings over HTTP.
type Client struct {
	http *resty.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the provider base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.http.SetBaseURL(u)
	}
}

// WithTimeout sets the request timeout. A timeout is equivalent to any other
// fetch failure: the run aborts before any writes.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithHTTPClient sets a custom resty client.
func WithHTTPClient(rc *resty.Client) ClientOption {
	return func(c *Client) {
		c.http = rc
	}
}

// NewClient creates a new provider client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if apiKey != "" {
		c.http.SetHeader(apiKeyHeader, apiKey)
	}
	return c
}

// TopListing requests the top ranked listing limited to limit entries.
// All-or-nothing: any transport, auth, or decode failure returns an error and
// no partial result. Retry policy belongs to the caller.
func (c *Client) TopListing(ctx context.Context, limit int) ([]*domain.TokenListing, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("listing limit must be positive, got %d", limit)
	}

	var body listingsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start":   "1",
			"limit":   strconv.Itoa(limit),
			"convert": quoteCurrency,
		}).
		SetResult(&body).
		Get(listingsPath)
	if err != nil {
		return nil, fmt.Errorf("fetch top listing: %w", err)
	}

	if resp.IsError() {
		// Error bodies still carry the status envelope when the provider
		// produced them; fall back to the bare HTTP status otherwise.
		var errBody listingsResponse
		_ = json.Unmarshal(resp.Body(), &errBody)
		return nil, &ProviderError{
			HTTPStatus: resp.StatusCode(),
			Code:       errBody.Status.ErrorCode,
			Message:    errBody.Status.ErrorMessage,
		}
	}

	if body.Status.ErrorCode != 0 {
		return nil, &ProviderError{
			HTTPStatus: resp.StatusCode(),
			Code:       body.Status.ErrorCode,
			Message:    body.Status.ErrorMessage,
		}
	}

	listings := make([]*domain.TokenListing, 0, len(body.Data))
	for _, entry := range body.Data {
		listing, err := toListing(entry)
		if err != nil {
			return nil, fmt.Errorf("map listing: %w", err)
		}
		listings = append(listings, listing)
	}
	return listings, nil
}
