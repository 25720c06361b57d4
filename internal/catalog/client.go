// Package catalog queries the public open food catalog by barcode and
// normalizes what it returns into a product candidate.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNotFound means the catalog has no entry for the barcode. It is distinct
// from UpstreamError: not-found sends the caller into community sourcing,
// an upstream failure must not.
var ErrNotFound = errors.New("catalog: product not found")

// UpstreamError wraps transport and server-side failures of the external
// catalog so callers can route them to retry instead of image upload.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog upstream error: %v", e.Err)
	}
	return fmt.Sprintf("catalog upstream error: status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Candidate is a normalized product candidate built from the raw catalog
// payload. It carries no status; classification happens later.
type Candidate struct {
	Barcode     string
	Name        string
	Ingredients []string
	PictureURL  string
}

// Client looks up a barcode in an external catalog.
type Client interface {
	Lookup(ctx context.Context, barcode string) (*Candidate, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a catalog client for an Open Food Facts compatible API.
func NewClient(baseURL string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) Lookup(ctx context.Context, barcode string) (*Candidate, error) {
	url := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	// The API answers 200 with status=0 when the barcode is unknown.
	if gjson.GetBytes(body, "status").Int() == 0 {
		return nil, ErrNotFound
	}

	return normalize(barcode, body), nil
}
