// Package ai calls the externally hosted produce freshness evaluation
// service. The service is an opaque collaborator; requests are forwarded and
// its JSON verdict relayed untouched.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	requestTimeout  = 15 * time.Second
	maxResponseSize = 1 << 20 // 1MB
)

// Client posts image URLs to the evaluation endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns a Client for the given endpoint URL. The underlying HTTP
// client carries a request timeout so a hung upstream cannot stall requests
// indefinitely.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: requestTimeout},
	}
}

// EvaluateImage forwards the image URL to the evaluation service and returns
// the raw JSON verdict.
func (c *Client) EvaluateImage(ctx context.Context, imageURL string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]string{"imageUrl": imageURL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling evaluation service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("evaluation service returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading evaluation response: %w", err)
	}
	return json.RawMessage(data), nil
}
