// Package netbox implements the NetBox REST client used as the downstream
// record store, with typed entity views and a retrying transport.
package netbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the NetBox REST API with token authentication. All
// requests pass through the retrying transport; callers only ever see a
// transient error after retries are exhausted.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Options tune the client's rate limiting and retry behavior.
type Options struct {
	// Delay is slept before every request.
	Delay time.Duration
	// Retries bounds how often a transient response (429/502/503) is
	// retried.
	Retries int
	// Backoff is the base backoff factor in seconds; attempt n waits
	// Backoff * 2^(n-1).
	Backoff float64
}

// NewClient creates a NetBox API client for the given endpoint URL and API
// token.
func NewClient(url, token string, opts Options) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(url, "/"),
		token:   token,
		client: &http.Client{
			Timeout:   120 * time.Second,
			Transport: newRetryTransport(opts.Delay, opts.Retries, opts.Backoff),
		},
	}
}

// apiError is the standard NetBox error body, a map of field names to
// messages or a top-level "detail".
func decodeAPIError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return fmt.Errorf("NetBox API returned status %d: %s", status, msg)
}

// do performs one request against an API path (or an absolute URL for
// pagination) and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	url := path
	if !strings.HasPrefix(path, "http") {
		url = c.baseURL + path
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal NetBox request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create NetBox request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call NetBox API %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read NetBox response for %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode NetBox response for %s: %w", path, err)
	}
	return nil
}

// page is one page of a NetBox list response.
type page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// list fetches every page of a list endpoint.
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	next := path
	for next != "" {
		var pg page[T]
		if err := c.do(ctx, http.MethodGet, next, nil, &pg); err != nil {
			return nil, err
		}
		all = append(all, pg.Results...)
		if pg.Next == nil {
			break
		}
		next = *pg.Next
	}
	return all, nil
}

func (c *Client) create(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) patch(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPatch, path, payload, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
