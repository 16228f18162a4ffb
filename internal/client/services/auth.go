// Package services contains application services for the vault CLI: the
// authentication flows (online, offline, register) and the encrypt/decrypt
// edge between typed entries and the sync engine.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/api"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/storage"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/cryptox"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/dbx"
)

// ErrLocalDataNotAvailable means offline login was attempted for an account
// this device has never logged into online.
var ErrLocalDataNotAvailable = errors.New("no cached credentials for this account, online login required")

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create a new account on the server.
//   - OnlineLogin: authenticate against the server, cache offline auth data
//     and persist the session.
//   - OfflineLogin: verify the password against locally cached data, no
//     server round trip.
//   - Logout: drop the persisted session.
//   - Ping: check server liveness.
//
// Both login variants return the session and the derived master key; the
// caller owns the key and must wipe it when done.
type AuthService interface {
	Register(ctx context.Context, login string, password []byte) error
	OnlineLogin(ctx context.Context, login string, password []byte) (*storage.Session, []byte, error)
	OfflineLogin(ctx context.Context, login string, password []byte) (*storage.Session, []byte, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

type authService struct {
	client api.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client
// and client database.
func NewAuthService(client api.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

// Register creates a new account on the server. It generates a random salt,
// derives a master key from the provided password, computes a verifier, and
// sends salt/verifier to the server. The password never leaves the machine.
func (a *authService) Register(ctx context.Context, login string, password []byte) error {
	salt := common.GenerateRandByteArray(32)
	key := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)
	verifier := cryptox.MakeVerifier(key)

	return a.client.Register(ctx, login, salt, verifier)
}

// OnlineLogin authenticates against the server, then persists everything a
// later offline unlock needs: the salt, the verifier and the account id,
// plus the session tokens.
func (a *authService) OnlineLogin(ctx context.Context, login string, password []byte) (*storage.Session, []byte, error) {
	salt, err := a.client.GetSalt(ctx, login)
	if err != nil {
		return nil, nil, fmt.Errorf("get salt error: %w", err)
	}

	masterKey := cryptox.DeriveMasterKey(password, salt)
	verifier := cryptox.MakeVerifier(masterKey)

	res, err := a.client.Login(ctx, login, verifier)
	if err != nil {
		common.WipeByteArray(masterKey)
		return nil, nil, fmt.Errorf("login error: %w", err)
	}

	sess := &storage.Session{
		UserID:       res.UserID,
		Login:        login,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}
	cache := &storage.AuthCache{UserID: res.UserID, Salt: salt, Verifier: verifier}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := storage.NewSQLiteStore(tx)
		if err := storage.SaveAuthCache(ctx, store, login, cache); err != nil {
			return err
		}
		return storage.SaveSession(ctx, store, sess)
	})
	if err != nil {
		common.WipeByteArray(masterKey)
		return nil, nil, fmt.Errorf("offline data saving error: %w", err)
	}

	return sess, masterKey, nil
}

// OfflineLogin derives a master key from (password, cached salt) and checks
// it against the cached verifier. When the stored session belongs to the
// same account its tokens are reused, so a later reconnect can sync without
// a fresh login.
func (a *authService) OfflineLogin(ctx context.Context, login string, password []byte) (*storage.Session, []byte, error) {
	store := storage.NewSQLiteStore(a.db)

	cache, err := storage.LoadAuthCache(ctx, store, login)
	if err != nil {
		return nil, nil, err
	}
	if cache == nil {
		return nil, nil, ErrLocalDataNotAvailable
	}

	masterKey := cryptox.DeriveMasterKey(password, cache.Salt)
	verifier := cryptox.MakeVerifier(masterKey)
	if subtle.ConstantTimeCompare(cache.Verifier, verifier) == 0 {
		common.WipeByteArray(masterKey)
		return nil, nil, common.ErrInvalidCredentials
	}

	sess := &storage.Session{UserID: cache.UserID, Login: login}
	saved, err := storage.LoadSession(ctx, store)
	if err == nil && saved != nil && saved.Login == login {
		sess = saved
		a.client.SetTokens(saved.AccessToken, saved.RefreshToken)
	}

	return sess, masterKey, nil
}

// Logout drops the persisted session. The auth cache stays, so offline
// unlock keeps working.
func (a *authService) Logout(ctx context.Context) error {
	a.client.SetTokens("", "")
	return storage.ClearSession(ctx, storage.NewSQLiteStore(a.db))
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
