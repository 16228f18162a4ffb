package repomanager

import (
	"context"
	"database/sql"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/dbx"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/refreshtokens"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/users"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/vaults"
)

// InMemoryRepositoryManager vends map-backed repositories. There is no
// database, so the DBTX argument is ignored and RunMigrations is a no-op.
// The rotation of refresh tokens loses transactional atomicity here, which
// is acceptable for development and tests.
type InMemoryRepositoryManager struct {
	users         *users.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
	vaults        *vaults.MemoryRepository
}

// NewInMemoryRepositoryManager constructs a manager with empty stores.
func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		vaults:        vaults.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *InMemoryRepositoryManager) Vaults(dbx.DBTX) vaults.Repository { return m.vaults }
