package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
)

type registerRequest struct {
	Login    string `json:"login"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type saltRequest struct {
	Login string `json:"login"`
}

type saltResponse struct {
	Salt []byte `json:"salt"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Verifier []byte `json:"verifier"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is what a successful login yields: the account id plus a token
// pair already installed on the client.
type LoginResult struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account. The password itself never travels: the caller
// sends the KDF salt and the derived verifier.
func (c *HTTPClient) Register(ctx context.Context, login string, salt, verifier []byte) error {
	req := registerRequest{Login: login, Salt: salt, Verifier: verifier}
	err := c.doJSON(ctx, http.MethodPost, "/api/user/register", req, nil)
	if errors.Is(err, common.ErrVersionConflict) {
		return common.ErrLoginAlreadyExists
	}
	return err
}

// GetSalt fetches the KDF salt for login. The server answers for unknown
// logins too, so existence of an account is not revealed here.
func (c *HTTPClient) GetSalt(ctx context.Context, login string) ([]byte, error) {
	var resp saltResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/user/salt", saltRequest{Login: login}, &resp); err != nil {
		return nil, err
	}
	return resp.Salt, nil
}

// Login exchanges the verifier for a token pair and installs it on the
// client, so subsequent calls are authenticated.
func (c *HTTPClient) Login(ctx context.Context, login string, verifier []byte) (*LoginResult, error) {
	var resp LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/api/user/login", loginRequest{Login: login, Verifier: verifier}, &resp)
	if errors.Is(err, common.ErrUnauthorized) {
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	c.SetTokens(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Ping checks server liveness.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/ping", nil, nil)
}
