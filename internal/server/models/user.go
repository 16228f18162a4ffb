// Package models holds the server-side persistence models shared by
// repositories and services.
package models

import "time"

// User is an account row. The server never stores a password: Salt feeds the
// client-side KDF and Verifier is what the derived key hashes to, so a
// database leak reveals neither the password nor the master key.
type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
