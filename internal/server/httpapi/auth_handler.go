// Package httpapi exposes the server over HTTP: account endpoints, the two
// vault synchronization endpoints, and the liveness and metrics routes. It
// owns the JSON wire shapes of requests and the error body convention; all
// decisions are delegated to the services layer.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/models"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/services"
)

type registerRequest struct {
	Login    string `json:"login"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type registerResponse struct {
	UserID string `json:"userId"`
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

type loginResponse struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// userService is the slice of the user service the auth endpoints call.
type userService interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, userName string) ([]byte, error)
	Login(ctx context.Context, userName string, verifier []byte) (*models.User, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// AuthHandler serves the public account endpoints.
type AuthHandler struct {
	users  userService
	logger logging.Logger
}

func NewAuthHandler(users userService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger.With("module", "auth_handler")}
}

// Register handles POST /api/user/register. A taken login answers 409 so the
// client can tell it apart from validation problems.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Login == "" || len(req.Salt) == 0 || len(req.Verifier) == 0 {
		writeError(w, http.StatusBadRequest, "login, salt and verifier are required")
		return
	}

	user, err := h.users.Register(r.Context(), req.Login, req.Salt, req.Verifier)
	if err != nil {
		if errors.Is(err, common.ErrLoginAlreadyExists) {
			writeError(w, http.StatusConflict, "login already exists")
			return
		}
		h.logger.Error(r.Context(), "registration failed", "login", req.Login, "error", err)
		writeInternalError(w)
		return
	}

	h.logger.Info(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, registerResponse{UserID: user.ID})
}

// GetSalt handles POST /api/user/salt. The service answers for unknown
// logins too, so this endpoint does not reveal account existence.
func (h *AuthHandler) GetSalt(w http.ResponseWriter, r *http.Request) {
	var req saltRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Login == "" {
		writeError(w, http.StatusBadRequest, "login is required")
		return
	}

	salt, err := h.users.GetSalt(r.Context(), req.Login)
	if err != nil {
		h.logger.Error(r.Context(), "salt lookup failed", "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, saltResponse{Salt: salt})
}

// Login handles POST /api/user/login. The response carries the account id
// together with the fresh token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Login == "" || len(req.Verifier) == 0 {
		writeError(w, http.StatusBadRequest, "login and verifier are required")
		return
	}

	user, pair, err := h.users.Login(r.Context(), req.Login, req.Verifier)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid login or password")
			return
		}
		h.logger.Error(r.Context(), "login failed", "login", req.Login, "error", err)
		writeInternalError(w)
		return
	}

	h.logger.Info(r.Context(), "user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh handles POST /api/user/refresh, rotating the refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrRefreshTokenExpired) {
			writeError(w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}
		h.logger.Error(r.Context(), "token refresh failed", "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
