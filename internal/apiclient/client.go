// Package apiclient is a thin, typed wrapper over the dealership backend's
// REST API. It attaches the bearer token, decodes JSON, and classifies every
// outcome into the apperr taxonomy. It classifies only; reacting to an
// unauthorized outcome (session teardown, navigation) is the caller's job.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Sai2266/dealership-platform/internal/apperr"
)

// TokenSource is the read-only token view the client needs. The session
// store implements it.
type TokenSource interface {
	Token() (string, bool)
}

// Client issues authenticated HTTP requests against one backend.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

// New creates a client for the backend at baseURL. tokens may be nil for a
// client that only calls unauthenticated endpoints.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// errBody is the error payload shape the backend uses for every failure.
type errBody struct {
	Error string `json:"error"`
}

// classify maps an HTTP status and response body to the error taxonomy.
// A nil return means success (2xx).
func classify(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := http.StatusText(status)
	var eb errBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		msg = eb.Error
	}
	switch {
	case status == http.StatusUnauthorized:
		return apperr.ErrUnauthorized
	case status == http.StatusForbidden, status == http.StatusNotFound:
		return apperr.ErrNotFound
	case status >= 500:
		return &apperr.ServerError{Status: status, Message: msg}
	default:
		return &apperr.ValidationError{Message: msg}
	}
}

// newRequest builds a request with the bearer token attached when present.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into out (which may be nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send executes the request, classifies the outcome, and decodes into out.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", apperr.ErrNetwork, err)
	}
	if err := classify(resp.StatusCode, data); err != nil {
		slog.Debug("request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode))
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}
