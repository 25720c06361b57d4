// Package storage uploads community images to an object storage bucket and
// returns their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ObjectStore stores a blob under a path and returns a public URL for it.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, contentType, objectPath string) (string, error)
}

type bucketClient struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
}

// Config holds object storage settings for a Supabase-style storage API.
type Config struct {
	BaseURL string
	Bucket  string
	APIKey  string
	Timeout time.Duration
}

// New builds an ObjectStore client.
func New(cfg Config) (ObjectStore, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("storage: base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &bucketClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		bucket:     cfg.Bucket,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *bucketClient) Upload(ctx context.Context, data []byte, contentType, objectPath string) (string, error) {
	objectPath = strings.TrimPrefix(objectPath, "/")
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("storage upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, objectPath), nil
}
