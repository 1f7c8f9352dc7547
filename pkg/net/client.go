package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 30
	clientAgent      = "ractl-webhook/1.0"
)

var reqTransport = &http.Transport{
	MaxIdleConns:          maxIdleConns,
	IdleConnTimeout:       timeoutInSeconds * time.Second,
	ResponseHeaderTimeout: timeoutInSeconds * time.Second,
}

func newClient() *http.Client {
	return &http.Client{
		Timeout:   timeoutInSeconds * time.Second,
		Transport: reqTransport,
	}
}

// PostJSON encodes the payload and posts it to the given URL. Non-2xx
// responses are returned as errors so the caller can log delivery failures.
func PostJSON(ctx context.Context, url string, payload any) error {
	if url == "" {
		return fmt.Errorf("url is required")
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("error creating HTTP Post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", clientAgent)

	resp, err := newClient().Do(req)
	if err != nil {
		return fmt.Errorf("error posting to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status from %s: %s", url, resp.Status)
	}
	return nil
}

// GetJSON retrieves the HTTP content and decodes it into the passed target.
func GetJSON[T any](ctx context.Context, url string, target *T) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", clientAgent)

	resp, err := newClient().Do(req)
	if err != nil {
		return fmt.Errorf("error getting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding content: %w", err)
	}
	return nil
}
