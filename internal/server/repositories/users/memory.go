package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/models"
)

// MemoryRepository keeps accounts in a map. It backs the in-memory manager
// used for development and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewMemoryRepository constructs an empty in-memory account store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*models.User)}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return nil, common.ErrLoginAlreadyExists
	}

	stored := *user
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()
	r.users[stored.UserName] = &stored

	out := stored
	return &out, nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[login]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *user
	return &out, nil
}
