// Package apiclient is the typed HTTP client for the scan records API used by
// the scanning station and by integration tests.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scanlog/infrastructure/dateutil"
	"scanlog/models"
)

const scansPath = "/api/scans"

// Client talks to one backend. The base URL is fixed at construction.
type Client struct {
	baseURL  string
	http     *http.Client
	clientID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithClientID tags every request with the X-Client-ID header.
func WithClientID(id string) Option {
	return func(c *Client) {
		c.clientID = strings.TrimSpace(id)
	}
}

// New returns a client for baseURL. An empty baseURL yields same-origin
// relative URLs, which only make sense for URLs handed to a browser.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateScan records a barcode. A duplicate is a success with IsDuplicate set.
func (c *Client) CreateScan(ctx context.Context, req CreateScanRequest) (CreateScanResponse, error) {
	var out CreateScanResponse
	body, err := json.Marshal(req)
	if err != nil {
		return out, &TransportError{Op: "create scan", Err: err}
	}
	err = c.doJSON(ctx, "create scan", http.MethodPost, c.baseURL+scansPath, bytes.NewReader(body), &out)
	return out, err
}

// ListScans returns one page of records matching q.
func (c *Client) ListScans(ctx context.Context, q ScanQuery) (ListScansResponse, error) {
	var out ListScansResponse
	err := c.doJSON(ctx, "list scans", http.MethodGet, c.buildURL(scansPath, q.Values()), nil, &out)
	if out.Scans == nil {
		out.Scans = []models.Scan{}
	}
	return out, err
}

// GetScan loads a single record.
func (c *Client) GetScan(ctx context.Context, id int64) (models.Scan, error) {
	var out models.Scan
	err := c.doJSON(ctx, "get scan", http.MethodGet, c.baseURL+scansPath+"/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

// ClearAll deletes every record.
func (c *Client) ClearAll(ctx context.Context) (ClearResponse, error) {
	var out ClearResponse
	err := c.doJSON(ctx, "clear scans", http.MethodDelete, c.baseURL+scansPath, nil, &out)
	return out, err
}

// ExportURL builds the spreadsheet URL for q. Pagination is always dropped
// so the export covers the full filtered set. No request is made.
func (c *Client) ExportURL(q ScanQuery) string {
	q.Page = nil
	return c.buildURL(scansPath+"/export", q.Values())
}

// Download fetches rawURL and returns the body with the filename announced
// in Content-Disposition, if any.
func (c *Client) Download(ctx context.Context, rawURL string) (Download, error) {
	resp, err := c.do(ctx, "download", http.MethodGet, rawURL, nil)
	if err != nil {
		return Download{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Download{}, &TransportError{Op: "download", Err: err}
	}
	return Download{
		Filename:    FilenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FilenameFromDisposition extracts the filename parameter, or "".
func FilenameFromDisposition(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}

func (c *Client) buildURL(path string, values url.Values) string {
	u := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func (c *Client) doJSON(ctx context.Context, op, method, rawURL string, body io.Reader, out any) error {
	resp, err := c.do(ctx, op, method, rawURL, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// do performs the round trip and converts non-2xx statuses into *APIError.
// On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, op, method, rawURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set(models.ClientIDHeader, c.clientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newAPIError(resp)
	}
	return resp, nil
}

// Values maps the query onto URL parameters, omitting every empty field.
func (q ScanQuery) Values() url.Values {
	v := url.Values{}
	if b := strings.TrimSpace(q.Barcode); b != "" {
		v.Set("barcode", b)
	}
	if s := dateutil.FormatDate(q.StartDate); s != "" {
		v.Set("start_date", s)
	}
	if s := dateutil.FormatDate(q.EndDate); s != "" {
		v.Set("end_date", s)
	}
	if q.Page != nil {
		v.Set("skip", strconv.Itoa(q.Page.Skip))
		v.Set("limit", strconv.Itoa(q.Page.Limit))
	}
	return v
}
