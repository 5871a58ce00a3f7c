// Package vision is the client for the camera inference service that
// confirms an occupant and recognises their face.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrDisabled is returned by New when vision is switched off.
var ErrDisabled = errors.New("vision: disabled")

// DefaultThreshold is the confidence above which a person counts as present.
const DefaultThreshold = 0.5

// UnknownName is the identity reported for a face the model does not know.
const UnknownName = "Unknown"

// Client queries the inference service.
//
//	GET {url}/presence -> {"present": bool, "confidence": 0.0-1.0}
//	GET {url}/identity -> {"name": "Alice"} or {"name": "Unknown"}
type Client struct {
	url        string
	threshold  float64
	httpClient *http.Client
}

// New creates a client for the service at url.
func New(url string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrDisabled
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:        strings.TrimRight(url, "/"),
		threshold:  DefaultThreshold,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// DetectPresence reports whether a person is in the current frame. A
// confidence above the threshold counts even when present is false.
func (c *Client) DetectPresence(ctx context.Context) (bool, error) {
	var out struct {
		Present    bool     `json:"present"`
		Confidence *float64 `json:"confidence"`
	}
	if err := c.get(ctx, "/presence", &out); err != nil {
		return false, err
	}
	if out.Confidence != nil && *out.Confidence > c.threshold {
		return true, nil
	}
	return out.Present, nil
}

// Identify names the person in the current frame. An empty name is
// reported as UnknownName.
func (c *Client) Identify(ctx context.Context) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/identity", &out); err != nil {
		return "", err
	}
	name := strings.TrimSpace(out.Name)
	if name == "" {
		return UnknownName, nil
	}
	return name, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return fmt.Errorf("vision %s: %w", path, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vision %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("vision %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("vision %s: decoding: %w", path, err)
	}
	return nil
}
