package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/storage/migrations"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/filex"
)

// ErrDatabaseLocked is returned when another client instance holds the
// database lock.
var ErrDatabaseLocked = errors.New("client database is locked by another instance")

// DB owns the client database handle and the instance lock guarding it.
type DB struct {
	*sql.DB
	lock *flock.Flock
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the client database at path, takes an
// exclusive instance lock next to it and applies migrations. Queued changes
// must survive an abrupt exit, so the connection runs with synchronous=FULL
// on top of WAL journaling.
func Open(ctx context.Context, path string) (*DB, error) {
	var lock *flock.Flock

	if !isMemoryDSN(path) {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("failed to prepare database directory: %w", err)
		}

		lock = flock.New(path + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire database lock: %w", err)
		}
		if !locked {
			return nil, ErrDatabaseLocked
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{DB: db, lock: lock}, nil
}

// Close releases the instance lock after closing the handle.
func (d *DB) Close() error {
	err := d.DB.Close()
	if d.lock != nil {
		_ = d.lock.Unlock()
	}
	return err
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func dsn(path string) string {
	if isMemoryDSN(path) {
		return path
	}
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)", path)
}
