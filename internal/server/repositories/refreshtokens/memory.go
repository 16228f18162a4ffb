package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/models"
)

// MemoryRepository keeps refresh tokens in a map, for the in-memory manager.
type MemoryRepository struct {
	mu     sync.RWMutex
	tokens map[string]*models.RefreshToken
}

// NewMemoryRepository constructs an empty in-memory token store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]*models.RefreshToken)}
}

func (r *MemoryRepository) Create(_ context.Context, userID string, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		Expires:   time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *rt
	return &out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}
