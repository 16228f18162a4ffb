// Package api implements the HTTP client for the sync server. It speaks the
// JSON wire protocol, attaches bearer credentials and maps transport and
// status failures onto the shared error taxonomy so callers can decide
// between retrying, surfacing and halting.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/netx"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// Client is the server-facing surface the rest of the client programs
// against. Implementations must be safe for concurrent use.
type Client interface {
	Register(ctx context.Context, login string, salt, verifier []byte) error
	GetSalt(ctx context.Context, login string) ([]byte, error)
	Login(ctx context.Context, login string, verifier []byte) (*LoginResult, error)
	Ping(ctx context.Context) error
	GetVault(ctx context.Context) (*vault.VaultSnapshot, error)
	SyncVault(ctx context.Context, delta vault.ChangeSet) (*vault.SyncSuccess, error)
	SetTokens(access, refresh string)
	Tokens() (access, refresh string)
	Close() error
}

// HTTPClient talks to the sync server over HTTP. Access and refresh tokens
// live inside the client; a request failing with an expired access token is
// retried once after a refresh.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

var _ Client = (*HTTPClient)(nil)

// NewClient returns an HTTPClient for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *HTTPClient {
	c := &HTTPClient{baseURL: strings.TrimRight(baseURL, "/")}
	c.http = netx.NewHTTPClient(timeout, c.currentAccessToken)
	return c
}

// SetTokens installs a token pair, used when restoring a persisted session.
func (c *HTTPClient) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// Tokens returns the current token pair for persisting the session.
func (c *HTTPClient) Tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) currentAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// request performs one request with an optional JSON body, returning the
// final status and raw response. A 401 triggers a single token refresh
// followed by a retry of the original request.
func (c *HTTPClient) request(ctx context.Context, method, path string, body any) (int, []byte, error) {
	status, raw, err := c.send(ctx, method, path, body)
	if err != nil {
		return 0, nil, err
	}

	if status == http.StatusUnauthorized && c.tryRefresh(ctx) {
		return c.send(ctx, method, path, body)
	}

	return status, raw, nil
}

// doJSON wraps request, decoding a 2xx response into out when out is
// non-nil and mapping any other status onto the shared sentinels.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	status, raw, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}

	if status >= 200 && status < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
		return nil
	}

	return statusError(status, raw)
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w: %w", method, path, common.ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w: %w", method, path, common.ErrServerUnavailable, err)
	}
	return resp.StatusCode, raw, nil
}

// tryRefresh rotates the token pair through the refresh endpoint. It reports
// whether a retry with fresh credentials makes sense.
func (c *HTTPClient) tryRefresh(ctx context.Context) bool {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()
	if refresh == "" {
		return false
	}

	status, raw, err := c.send(ctx, http.MethodPost, "/api/user/refresh", refreshRequest{RefreshToken: refresh})
	if err != nil || status != http.StatusOK {
		return false
	}

	var tokens tokenResponse
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return false
	}

	c.mu.Lock()
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.mu.Unlock()
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusError maps a non-2xx status onto the shared sentinels, wrapping the
// server-provided message when one is present.
func statusError(status int, raw []byte) error {
	var sentinel error
	switch {
	case status == http.StatusUnauthorized:
		sentinel = common.ErrUnauthorized
	case status == http.StatusNotFound:
		sentinel = common.ErrNotFound
	case status == http.StatusConflict:
		sentinel = common.ErrVersionConflict
	case status == http.StatusBadRequest:
		sentinel = common.ErrMalformedRequest
	case status >= 500:
		sentinel = common.ErrServerUnavailable
	default:
		sentinel = common.ErrInternal
	}

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return fmt.Errorf("server returned %d (%s): %w", status, body.Error, sentinel)
	}
	return fmt.Errorf("server returned %d: %w", status, sentinel)
}
