package repomanager

import (
	"context"
	"database/sql"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/dbx"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/refreshtokens"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/users"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/vaults"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can run
// several repository calls against the pool or inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Vaults(db dbx.DBTX) vaults.Repository
}
