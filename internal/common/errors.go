// Package common defines shared constants and sentinel errors used across
// client and server layers of SecurePM. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrVaultNotFound = errors.New("vault not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal        = errors.New("internal error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")

	// Transport-level errors mapped at the API client boundary.
	ErrServerUnavailable = errors.New("server unavailable")
	ErrMalformedRequest  = errors.New("malformed request")

	// Auth errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrLoginAlreadyExists  = errors.New("login already exists")
	ErrInvalidCredentials  = errors.New("invalid login or password")

	// Sync-engine errors surfaced to the caller.
	ErrConflictPending = errors.New("unresolved sync conflict")
)
