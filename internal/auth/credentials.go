package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"chat-client/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenSource supplies the current access token for REST calls and the
// websocket handshake. Refresh swaps the token after a 401.
type TokenSource interface {
	Token() string
	Refresh(ctx context.Context) error
}

// StaticToken is a fixed token, mainly for tests.
type StaticToken string

func (t StaticToken) Token() string                   { return string(t) }
func (t StaticToken) Refresh(_ context.Context) error { return nil }

// Credentials is the REST-backed token source. The access token is replaced
// atomically on refresh so concurrent readers never see a torn value.
type Credentials struct {
	baseURL string
	client  *http.Client

	mu      sync.RWMutex
	access  string
	refresh string
	user    models.User
}

type tokenPayload struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type tokenEnvelope struct {
	Data tokenPayload `json:"data"`
}

// Login exchanges username/password for a token pair.
func Login(ctx context.Context, baseURL string, client *http.Client, username, password string) (*Credentials, error) {
	return authenticate(ctx, baseURL, client, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

// Signup registers a new account and returns a live credential.
func Signup(ctx context.Context, baseURL string, client *http.Client, username, password, displayName string) (*Credentials, error) {
	return authenticate(ctx, baseURL, client, "/auth/signup", map[string]string{
		"username":     username,
		"password":     password,
		"display_name": displayName,
	})
}

func authenticate(ctx context.Context, baseURL string, client *http.Client, path string, body map[string]string) (*Credentials, error) {
	if client == nil {
		client = http.DefaultClient
	}
	payload, err := postToken(ctx, client, baseURL+path, body)
	if err != nil {
		return nil, err
	}
	return &Credentials{
		baseURL: baseURL,
		client:  client,
		access:  payload.AccessToken,
		refresh: payload.RefreshToken,
		user:    payload.User,
	}, nil
}

// Token returns the current access token.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access
}

// User returns the authenticated user.
func (c *Credentials) User() models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Refresh rotates the token pair using the refresh token.
func (c *Credentials) Refresh(ctx context.Context) error {
	c.mu.RLock()
	refresh := c.refresh
	c.mu.RUnlock()

	payload, err := postToken(ctx, c.client, c.baseURL+"/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.access = payload.AccessToken
	if payload.RefreshToken != "" {
		c.refresh = payload.RefreshToken
	}
	c.mu.Unlock()
	return nil
}

func postToken(ctx context.Context, client *http.Client, url string, body map[string]string) (tokenPayload, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return tokenPayload{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return tokenPayload{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return tokenPayload{}, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return tokenPayload{}, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return tokenPayload{}, fmt.Errorf("auth request: unexpected status %d", resp.StatusCode)
	}

	var envelope tokenEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return tokenPayload{}, fmt.Errorf("decode auth response: %w", err)
	}
	if envelope.Data.AccessToken == "" {
		return tokenPayload{}, errors.New("auth response missing access token")
	}
	return envelope.Data, nil
}
