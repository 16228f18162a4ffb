package users

import (
	"context"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/models"
)

// Repository is the storage contract for accounts. Create returns
// common.ErrLoginAlreadyExists when the login is taken; GetUserByLogin
// returns common.ErrNotFound for unknown logins.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
