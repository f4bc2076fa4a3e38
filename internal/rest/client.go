package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"chat-client/internal/auth"
	"chat-client/internal/observability"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Client talks to the chat backend's REST surface. Response bodies arrive
// wrapped in a {"data": ...} envelope. A 401 triggers one token refresh and
// one replay; a second 401 surfaces as ErrUnauthorized.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenSource
}

// NewClient constructs a Client. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, tokens auth.TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient, tokens: tokens}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do performs one request with auth, tracing and metrics. route is the
// path template used as the metric label to keep cardinality bounded.
func (c *Client) do(ctx context.Context, method, route, path string, body, out any) error {
	ctx, span := otel.Tracer("chat-client/rest").Start(ctx, method+" "+route)
	defer span.End()

	status, err := c.doOnce(ctx, method, path, body, out)
	if status == http.StatusUnauthorized && c.tokens != nil {
		if refreshErr := c.tokens.Refresh(ctx); refreshErr != nil {
			observability.IncRESTRequest(method, route, status)
			return fmt.Errorf("%w: token refresh failed: %v", ErrUnauthorized, refreshErr)
		}
		status, err = c.doOnce(ctx, method, path, body, out)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	observability.IncRESTRequest(method, route, status)

	switch {
	case err != nil:
		return err
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 400:
		return fmt.Errorf("%s %s: unexpected status %d", method, path, status)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return resp.StatusCode, nil
	}
	if out == nil {
		return resp.StatusCode, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return resp.StatusCode, nil
}
