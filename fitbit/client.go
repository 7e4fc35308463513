// Package fitbit wraps outbound calls to the Fitbit Web API, resolving a
// valid access token before each call and attaching it as a bearer
// credential. Provider error responses propagate with status and body
// preserved; only token-resolution failures are classified here.
package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the Fitbit Web API origin.
const DefaultBaseURL = "https://api.fitbit.com"

// TokenResolver yields a valid bearer credential for an account key,
// refreshing the stored record when needed.
type TokenResolver interface {
	ResolveAccessToken(ctx context.Context, key string) (string, error)
}

// APIError is a non-success provider response, preserved for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fitbit api error: status %v: %s", e.StatusCode, e.Body)
}

// Client issues authenticated, read-only Fitbit Web API calls.
type Client struct {
	resolver   TokenResolver
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(c *Client)

// WithBaseURL overrides the API origin, for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a Client resolving tokens through the supplied resolver.
func New(resolver TokenResolver, options ...ClientOption) *Client {
	ret := &Client{
		resolver:   resolver,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Profile fetches the authorized user's profile.
func (c *Client) Profile(ctx context.Context, key string) (*Profile, error) {
	ret := &Profile{}
	if err := c.get(ctx, key, "/1/user/-/profile.json", ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// ActivitySummary fetches the daily activity summary for the date
// (yyyy-MM-dd or "today").
func (c *Client) ActivitySummary(ctx context.Context, key, date string) (*ActivitySummary, error) {
	ret := &ActivitySummary{}
	uri := fmt.Sprintf("/1/user/-/activities/date/%v.json", date)
	if err := c.get(ctx, key, uri, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// SleepLog fetches the sleep log for the date.
func (c *Client) SleepLog(ctx context.Context, key, date string) (*SleepLog, error) {
	ret := &SleepLog{}
	uri := fmt.Sprintf("/1.2/user/-/sleep/date/%v.json", date)
	if err := c.get(ctx, key, uri, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// HeartRate fetches the heart-rate time series for the date and period
// (1d, 7d, 30d, 1w or 1m).
func (c *Client) HeartRate(ctx context.Context, key, date, period string) (*HeartRateSeries, error) {
	ret := &HeartRateSeries{}
	uri := fmt.Sprintf("/1/user/-/activities/heart/date/%v/%v.json", date, period)
	if err := c.get(ctx, key, uri, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) get(ctx context.Context, key, uri string, result interface{}) error {
	accessToken, err := c.resolver.ResolveAccessToken(ctx, key)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+uri, nil)
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Accept", "application/json")
	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusOK {
		return &APIError{StatusCode: response.StatusCode, Body: string(body)}
	}
	if err = json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to parse %v response: %w", uri, err)
	}
	return nil
}
