package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/api"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/config"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/services"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/storage"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/syncer"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// syncControl is what the REPL needs from the sync controller. The concrete
// syncer.Controller satisfies it; tests can provide a stub.
type syncControl interface {
	services.Vault
	Load(ctx context.Context) error
	SetOnline(ctx context.Context, online bool)
	Tick(ctx context.Context)
	SyncNow(ctx context.Context) error
	ResolveConflict(ctx context.Context) error
	Status() syncer.Status
	TakeNotice() (string, bool)
}

// newSyncController is a test seam: the real constructor wants a live
// database and API client.
var newSyncController = func(client api.Client, db *sql.DB, lg logging.Logger, userID string) syncControl {
	return syncer.NewController(client, db, lg, userID)
}

// App holds everything the interactive client needs. The session fields
// (sync, entryService, masterKey, userName, Mode) are guarded by mu because
// the connectivity watcher runs on its own goroutine.
type App struct {
	config      *config.Config
	api         api.Client
	db          *storage.DB
	log         logging.Logger
	authService services.AuthService
	reader      *bufio.Reader

	mu           sync.Mutex
	sync         syncControl
	entryService services.EntryService
	masterKey    []byte
	userName     string
	Mode         Mode
}

func NewApp(ctx context.Context, c *config.Config, lg logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, c.DatabaseFile)
	if err != nil {
		return nil, err
	}

	apiClient := api.NewClient(c.ServerURL, c.RequestTimeout)
	as := services.NewAuthService(apiClient, db.DB)

	return &App{
		config:      c,
		api:         apiClient,
		db:          db,
		log:         lg,
		authService: as,
		Mode:        ModeOffline,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.masterKey != nil
}

func (a *App) currentSync() syncControl {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sync
}

func (a *App) currentEntryService() (services.EntryService, []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entryService, a.masterKey
}

// setMode records the observed connectivity and forwards it to the sync
// controller, which treats repeated reports of the same state as no-ops.
func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	s := a.sync
	a.mu.Unlock()

	if changed {
		log.Printf("switched to %s mode", mode)
	}
	if s != nil {
		s.SetOnline(ctx, mode == ModeOnline)
		flushNotices(s)
	}
}

// flushNotices prints engine-generated messages, such as a stale queue
// being dropped on reconnect, so background decisions are not silent.
func flushNotices(s syncControl) {
	if msg, ok := s.TakeNotice(); ok {
		log.Printf("%s", msg)
	}
}

// beginSession builds the per-user sync controller, loads persisted state
// and installs the entry service on top of it.
func (a *App) beginSession(ctx context.Context, sess *storage.Session, masterKey []byte, mode Mode) error {
	ctrl := newSyncController(a.api, a.db.DB, a.log, sess.UserID)
	if err := ctrl.Load(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.sync = ctrl
	a.entryService = services.NewEntryService(ctrl)
	a.masterKey = masterKey
	a.userName = sess.Login
	a.mu.Unlock()

	a.setMode(ctx, mode)
	return nil
}

func (a *App) endSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.masterKey {
		a.masterKey[i] = 0
	}
	a.masterKey = nil
	a.sync = nil
	a.entryService = nil
	a.userName = ""
}

// StartOnlineStatusWatcher pings the server on the given interval and feeds
// the result into the sync controller. A second, slower ticker drives the
// controller's retry schedule so backed-off batches are eventually retried
// even when nothing else touches the vault.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	syncTicker := time.NewTicker(a.config.SyncInterval)
	defer syncTicker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.authService.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				a.setMode(ctx, ModeOnline)
			}

		case <-syncTicker.C:
			if s := a.currentSync(); s != nil {
				tctx, cancel := context.WithTimeout(context.Background(), a.config.RequestTimeout)
				s.Tick(tctx)
				cancel()
				flushNotices(s)
			}

		case <-ctx.Done():
			return
		}
	}
}
