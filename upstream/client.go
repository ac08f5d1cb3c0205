// Package upstream talks to the external events backend that owns the
// collection data and receives contact messages.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vibgyorsite/browser"
)

// ErrUpstreamStatus wraps any non-2xx response from the backend.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// maxBody caps how much of a backend response is read.
const maxBody = 8 << 20

// Client is a thin JSON client for the backend API.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient returns a client for the backend rooted at baseURL
// (e.g. "http://localhost:5100").
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q: scheme must be http or https", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: u, http: hc}, nil
}

// BaseURL returns the backend root, used by the uploads proxy.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

func (c *Client) endpoint(p string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	return u.String()
}

// FetchCollections performs GET /api/events. The whole array is decoded
// before anything is returned, so callers replace their list in one step.
func (c *Client) FetchCollections(ctx context.Context) ([]browser.Collection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/events"), nil)
	if err != nil {
		return nil, fmt.Errorf("build events request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, fmt.Errorf("fetch events: %w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var out []browser.Collection
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	if out == nil {
		out = []browser.Collection{}
	}
	return out, nil
}

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactResponse is what the backend answers. Success is derived from the
// HTTP status when the body omits it.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitContact performs POST /api/contact. A non-2xx answer is returned as
// a response with Success false and a wrapped ErrUpstreamStatus, so callers
// can show the backend's message.
func (c *Client) SubmitContact(ctx context.Context, msg ContactRequest) (ContactResponse, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return ContactResponse{}, fmt.Errorf("encode contact: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/contact"), bytes.NewReader(body))
	if err != nil {
		return ContactResponse{}, fmt.Errorf("build contact request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ContactResponse{}, fmt.Errorf("submit contact: %w", err)
	}
	defer resp.Body.Close()

	var out ContactResponse
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	decodeErr := json.Unmarshal(raw, &out)

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok {
		out.Success = false
		return out, fmt.Errorf("submit contact: %w: %d", ErrUpstreamStatus, resp.StatusCode)
	}
	if readErr != nil {
		// A cut-off answer does not prove the message was stored.
		return ContactResponse{}, fmt.Errorf("read contact response: %w", readErr)
	}
	if decodeErr != nil {
		// A 2xx with an unreadable body still counts as delivered.
		return ContactResponse{Success: true}, nil
	}
	out.Success = true
	return out, nil
}
