// Package github provides a minimal GitHub API client for flakepin.
//
// The client carries fixed headers (API version accept header, user agent,
// optional bearer token) and maps HTTP status codes onto the structured
// error codes used across the tool. Requests are issued exactly once:
// transient failures surface immediately instead of being retried, so a
// run either completes deterministically or aborts at the first fault.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nixforge/flakepin/pkg/errors"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultRawBaseURL = "https://raw.githubusercontent.com"

	userAgent   = "flakepin"
	httpTimeout = 30 * time.Second
)

// Client issues authenticated requests against the GitHub API and the raw
// content host. It is immutable after construction and safe to share.
type Client struct {
	// BaseURL is the GitHub REST API root. Overridable for tests.
	BaseURL string
	// RawBaseURL is the raw.githubusercontent.com root. Overridable for tests.
	RawBaseURL string

	token string
	http  *http.Client
}

// NewClient creates a client with optional authentication. Pass an empty
// token for unauthenticated requests (lower rate limits).
func NewClient(token string) *Client {
	return &Client{
		BaseURL:    defaultAPIBaseURL,
		RawBaseURL: defaultRawBaseURL,
		token:      token,
		http:       &http.Client{Timeout: httpTimeout},
	}
}

// GetJSON performs a GET against the API and decodes the JSON response
// into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode response from %s", url)
	}
	return nil
}

// GetText performs a GET and returns the response body as a string.
// Used for raw file content endpoints.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "read response from %s", url)
	}
	return string(data), nil
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "create request for %s", url)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "request %s", url)
	}

	if err := checkStatus(resp.StatusCode, url); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int, url string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "not found: %s", url)
	default:
		return errors.New(errors.ErrCodeNetwork, "%s returned HTTP %d", url, code)
	}
}

// APIURL joins path segments onto the API base URL.
func (c *Client) APIURL(format string, args ...any) string {
	return c.BaseURL + fmt.Sprintf(format, args...)
}

// RawURL joins path segments onto the raw content base URL.
func (c *Client) RawURL(format string, args ...any) string {
	return c.RawBaseURL + fmt.Sprintf(format, args...)
}
