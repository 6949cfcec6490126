// Package apiclient is an HTTP client for the SEODash REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seodash/seodash/internal/model"
)

// DefaultTimeout bounds a single API call. Audits run a full Lighthouse pass.
const DefaultTimeout = 90 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx API response. Message is the body's "error" field
// and is empty when the body carried none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client calls the website, metrics and audit endpoints.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a client for baseURL. A nil httpClient uses DefaultTimeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must use http or https: %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api base url has no host: %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

// ListWebsites returns every registered website.
func (c *Client) ListWebsites(ctx context.Context) ([]model.Website, error) {
	var websites []model.Website
	if err := c.do(ctx, http.MethodGet, "/api/websites", nil, nil, &websites); err != nil {
		return nil, err
	}
	return websites, nil
}

// CreateWebsite registers a website. The response body is ignored.
func (c *Client) CreateWebsite(ctx context.Context, name, siteURL string) error {
	body := map[string]string{"name": name, "url": siteURL}
	return c.do(ctx, http.MethodPost, "/api/websites", nil, body, nil)
}

// DeleteWebsite removes a website.
func (c *Client) DeleteWebsite(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, websitePath(id, ""), nil, nil, nil)
}

// GetMetrics returns the samples of the trailing days window.
func (c *Client) GetMetrics(ctx context.Context, id int64, days int) ([]model.MetricSample, error) {
	query := url.Values{}
	query.Set("days", strconv.Itoa(days))

	var samples []model.MetricSample
	if err := c.do(ctx, http.MethodGet, websitePath(id, "/metrics"), query, nil, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// RunAudit triggers an audit and returns the raw "results" document.
func (c *Client) RunAudit(ctx context.Context, id int64) (json.RawMessage, error) {
	var resp struct {
		Results json.RawMessage `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, websitePath(id, "/audit"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func websitePath(id int64, suffix string) string {
	return "/api/websites/" + strconv.FormatInt(id, 10) + suffix
}

func (c *Client) endpoint(path string, query url.Values) string {
	target := *c.baseURL
	base := strings.TrimRight(c.baseURL.Path, "/")
	target.Path = base + path
	target.RawQuery = ""
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Message = strings.TrimSpace(payload.Error)
	}
	return apiErr
}
