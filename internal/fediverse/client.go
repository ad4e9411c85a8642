// Package fediverse is the thin HTTP client for a Mastodon-compatible
// server: status fetch and account lookup.
package fediverse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/tootvault/tootvault/internal/apperr"
	"github.com/tootvault/tootvault/internal/models"
)

// maxResponseBytes caps an API response body.
const maxResponseBytes = 20 << 20 // 20 MB

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) { cl.client = c }
}

// Client talks to one server. There is no retry or backoff; a failed
// request fails the current command.
type Client struct {
	host   string
	client HTTPClient
}

// NewClient creates a client for the given server host name.
func NewClient(host string, opts ...Option) (*Client, error) {
	if err := validation.Validate(host, validation.Required, is.DNSName); err != nil {
		return nil, fmt.Errorf("fediverse: host %q: %v: %w", host, err, apperr.ErrInvalidConfig)
	}
	c := &Client{
		host:   host,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchStatuses returns the user's most recent original statuses, excluding
// replies and reblogs, in the order the server returns them.
func (c *Client) FetchStatuses(ctx context.Context, userID string) ([]models.Status, error) {
	if err := validation.Validate(userID, validation.Required, is.Digit); err != nil {
		return nil, fmt.Errorf("fediverse: user id %q: %v: %w", userID, err, apperr.ErrInvalidInput)
	}

	endpoint := url.URL{
		Scheme:   "https",
		Host:     c.host,
		Path:     "/api/v1/accounts/" + userID + "/statuses",
		RawQuery: "exclude_replies=true&exclude_reblogs=true",
	}

	var statuses []models.Status
	if err := c.getJSON(ctx, endpoint.String(), &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// LookupUser resolves an account name (user or user@host form) to the
// account record, which carries the numeric id the other commands need.
func (c *Client) LookupUser(ctx context.Context, acct string) (*models.Account, error) {
	if acct == "" {
		return nil, fmt.Errorf("fediverse: account name must not be empty: %w", apperr.ErrInvalidInput)
	}

	endpoint := url.URL{
		Scheme:   "https",
		Host:     c.host,
		Path:     "/api/v1/accounts/lookup",
		RawQuery: "acct=" + url.QueryEscape(acct),
	}

	var account models.Account
	if err := c.getJSON(ctx, endpoint.String(), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("fediverse: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fediverse: get %s: %v: %w", endpoint, err, apperr.ErrTransport)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fediverse: get %s: unexpected status %d: %w", endpoint, resp.StatusCode, apperr.ErrTransport)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("fediverse: read response: %v: %w", err, apperr.ErrTransport)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("fediverse: decode response: %w", err)
	}
	return nil
}
