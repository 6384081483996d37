// Package catalog fetches the read-only product catalog from the remote demo
// API and offers the search, sort and lookup helpers of the catalog view.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"fintrack/internal/core"
)

// DefaultURL is the public demo endpoint the catalog is read from.
const DefaultURL = "https://dummyjson.com/products"

// maxBodyBytes bounds the catalog response read into memory.
const maxBodyBytes = 10 << 20

// ErrNetwork matches every *NetworkError.
var ErrNetwork = errors.New("catalog unavailable")

// NetworkError reports a failed catalog fetch. It is never an empty catalog.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch catalog %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch catalog %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds a client for url with a pooled transport. A zero timeout
// means 30 seconds.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{url: url, httpClient: newHTTPClientWithPooling(timeout)}
}

// NewClientWithHTTP builds a client around an existing http.Client.
func NewClientWithHTTP(url string, hc *http.Client) *Client {
	return &Client{url: url, httpClient: hc}
}

// URL returns the endpoint the client reads from.
func (c *Client) URL() string { return c.url }

type productsResponse struct {
	Products []core.Product `json:"products"`
	Total    int            `json:"total"`
}

// FetchAll performs a single GET of the catalog. There is no retry.
func (c *Client) FetchAll(ctx context.Context) ([]core.Product, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &NetworkError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &NetworkError{URL: c.url, StatusCode: resp.StatusCode}
	}

	var body productsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, &NetworkError{URL: c.url, Err: fmt.Errorf("decode response: %w", err)}
	}
	if body.Products == nil {
		body.Products = []core.Product{}
	}

	slog.DebugContext(ctx, "Catalog fetched",
		"url", c.url,
		"products", len(body.Products),
		"duration_ms", time.Since(start).Milliseconds())
	return body.Products, nil
}

func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
