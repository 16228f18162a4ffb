package models

import "time"

// RefreshToken is a server-stored long-lived credential. Tokens are rotated
// on every refresh: the presented row is deleted and a new one inserted in
// the same transaction.
type RefreshToken struct {
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
