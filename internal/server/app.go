// Package server initializes and runs the sync server: it selects the vault
// storage backend, wires repositories through services into the HTTP
// endpoint, and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/config"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/httpapi"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/repomanager"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/vaults"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// App holds the wired server: configuration, logger, the optional database
// handle, and the assembled HTTP handler.
type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

// NewApp builds a fully wired server. The vault backend is selected by
// cfg.VaultStorage: postgres keeps vaults next to the accounts, s3 moves
// them into object storage, and memory keeps everything in process, accounts
// included, for development and tests.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewZerolog("server")
	app := &App{config: cfg, logger: logger}

	switch cfg.VaultStorage {
	case config.VaultStorageMemory, config.VaultStoragePostgres, config.VaultStorageS3:
	default:
		return nil, fmt.Errorf("unknown vault storage backend: %q", cfg.VaultStorage)
	}

	var manager repomanager.RepositoryManager
	if cfg.VaultStorage == config.VaultStorageMemory {
		manager = repomanager.NewInMemoryRepositoryManager()
	} else {
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		pm := repomanager.NewPostgresRepositoryManager()
		if err := pm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		manager = pm
		app.db = db
	}

	var vaultRepo vaults.Repository
	if cfg.VaultStorage == config.VaultStorageS3 {
		repo, err := vaults.NewS3Repository(ctx, vaults.S3Options{
			Region:       cfg.S3Region,
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
		})
		if err != nil {
			app.closeDB(ctx)
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		vaultRepo = repo
	} else {
		vaultRepo = manager.Vaults(app.db)
	}

	userService := services.NewUserService(app.db, manager, cfg)
	vaultService := services.NewVaultService(vaultRepo, logger)

	app.handler = httpapi.NewRouter(userService, vaultService, []byte(cfg.SecretKey), logger)
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http server shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "starting http server",
		"addr", app.config.EndpointAddr, "vault_storage", app.config.VaultStorage)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
	<-shutdownDone
}

// Run serves until the context is cancelled or a termination signal arrives,
// then shuts the endpoint down gracefully and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.closeDB(ctx)
}

func (app *App) closeDB(ctx context.Context) {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.db = nil
}
