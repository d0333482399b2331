// Package opensheet reads published Google Sheets through an opensheet
// style JSON endpoint: GET <base>/<spreadsheet>/<sheet> returns an array of
// header -> value objects.
package opensheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopledger/internal/core"
	ports "shopledger/internal/sheets"
)

// DefaultBaseURL is the public opensheet instance.
const DefaultBaseURL = "https://opensheet.elk.sh"

const maxBody = 32 << 20

var _ ports.Source = (*Client)(nil)

// Client fetches sheets over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient gets a pooled client
// with the given timeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = newHTTPClient(timeout)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// URL returns the endpoint of ref.
func (c *Client) URL(ref ports.Ref) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(ref.SpreadsheetID), url.PathEscape(ref.Sheet))
}

// ReadRows fetches one sheet.
func (c *Client) ReadRows(ctx context.Context, ref ports.Ref) ([]core.RawRow, error) {
	return c.ReadURL(ctx, c.URL(ref))
}

// ReadURL fetches a sheet by its full endpoint URL.
func (c *Client) ReadURL(ctx context.Context, rawURL string) ([]core.RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, ports.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("fetch %s: status %d: %s", rawURL, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var objs []map[string]any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(&objs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}

	rows := make([]core.RawRow, 0, len(objs))
	for _, obj := range objs {
		row := make(core.RawRow, len(obj))
		for k, v := range obj {
			row[k] = Stringify(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Stringify renders a decoded JSON cell as the text the sheet showed.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
