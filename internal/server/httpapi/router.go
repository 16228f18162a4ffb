package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"
)

// NewRouter assembles the HTTP API: liveness and metrics routes, the public
// account routes under /api/user, and the bearer-protected vault routes.
func NewRouter(users userService, vaults vaultService, jwtSecret []byte, logger logging.Logger) *chi.Mux {
	authHandler := NewAuthHandler(users, logger)
	vaultHandler := NewVaultHandler(vaults, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/salt", authHandler.GetSalt)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticator(jwtSecret))
		r.Get("/vault", vaultHandler.GetVault)
		r.Post("/vault/sync", vaultHandler.SyncVault)
	})

	return r
}
