package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/guard"
	"github.com/frahmantamala/access-management/internal/module"
	"github.com/frahmantamala/access-management/internal/navigation"
	"github.com/frahmantamala/access-management/internal/role"
	"github.com/frahmantamala/access-management/internal/transport/middleware"
	"github.com/frahmantamala/access-management/internal/transport/swagger"
	"github.com/frahmantamala/access-management/internal/user"
)

// NewGuardRegistry is the static route-to-requirement table. Every guarded
// route declares its module and required action here, so a typo fails at
// startup instead of silently skipping a check. Module refs use both
// lookup schemes on purpose; name and path resolve to the same record.
func NewGuardRegistry() *guard.Registry {
	registry := guard.NewRegistry()

	registry.Register("users.list", guard.Check{Module: guard.ByName("Users"), Action: rbac.CanView})
	registry.Register("users.get", guard.Check{Module: guard.ByName("Users"), Action: rbac.CanView})
	registry.Register("users.create", guard.Check{Module: guard.ByName("Users"), Action: rbac.CanCreate})
	registry.Register("users.update",
		guard.Check{Module: guard.ByName("Users"), Action: rbac.CanView},
		guard.Check{Module: guard.ByName("Users"), Action: rbac.CanUpdate},
	)
	registry.Register("users.delete", guard.Check{Module: guard.ByName("Users"), Action: rbac.CanDelete})

	registry.Register("roles.list", guard.Check{Module: guard.ByPath("/roles"), Action: rbac.CanView})
	registry.Register("roles.get", guard.Check{Module: guard.ByPath("/roles"), Action: rbac.CanView})
	registry.Register("roles.create", guard.Check{Module: guard.ByPath("/roles"), Action: rbac.CanCreate})
	registry.Register("roles.update", guard.Check{Module: guard.ByPath("/roles"), Action: rbac.CanUpdate})
	registry.Register("roles.delete", guard.Check{Module: guard.ByPath("/roles"), Action: rbac.CanDelete})
	registry.Register("roles.sync_users", guard.Check{Module: guard.ByPath("/roles"), Action: rbac.CanUpdate})

	registry.Register("modules.list", guard.Check{Module: guard.ByName("Modules"), Action: rbac.CanView})
	registry.Register("modules.get", guard.Check{Module: guard.ByName("Modules"), Action: rbac.CanView})
	registry.Register("modules.create", guard.Check{Module: guard.ByName("Modules"), Action: rbac.CanCreate})
	registry.Register("modules.update", guard.Check{Module: guard.ByName("Modules"), Action: rbac.CanUpdate})
	registry.Register("modules.delete", guard.Check{Module: guard.ByName("Modules"), Action: rbac.CanDelete})

	return registry
}

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	accessGuard *guard.Guard,
	userHandler *user.Handler,
	roleHandler *role.Handler,
	moduleHandler *module.Handler,
	navHandler *navigation.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/me", authHandler.Me)
			pr.Get("/navigation", navHandler.Get)

			pr.Route("/users", func(ur chi.Router) {
				ur.With(accessGuard.Middleware("users.list")).Get("/", userHandler.List)
				ur.With(accessGuard.Middleware("users.get")).Get("/{id}", userHandler.Get)
				ur.With(accessGuard.Middleware("users.create")).Post("/", userHandler.Create)
				ur.With(accessGuard.Middleware("users.update")).Put("/{id}", userHandler.Update)
				ur.With(accessGuard.Middleware("users.delete")).Delete("/{id}", userHandler.Delete)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.With(accessGuard.Middleware("roles.list")).Get("/", roleHandler.List)
				rr.With(accessGuard.Middleware("roles.get")).Get("/{id}", roleHandler.Get)
				rr.With(accessGuard.Middleware("roles.create")).Post("/", roleHandler.Create)
				rr.With(accessGuard.Middleware("roles.update")).Put("/{id}", roleHandler.Update)
				rr.With(accessGuard.Middleware("roles.delete")).Delete("/{id}", roleHandler.Delete)
				rr.With(accessGuard.Middleware("roles.sync_users")).Put("/{id}/users", roleHandler.SyncUsers)
			})

			pr.Route("/modules", func(mr chi.Router) {
				mr.With(accessGuard.Middleware("modules.list")).Get("/", moduleHandler.List)
				mr.With(accessGuard.Middleware("modules.get")).Get("/{id}", moduleHandler.Get)
				mr.With(accessGuard.Middleware("modules.create")).Post("/", moduleHandler.Create)
				mr.With(accessGuard.Middleware("modules.update")).Put("/{id}", moduleHandler.Update)
				mr.With(accessGuard.Middleware("modules.delete")).Delete("/{id}", moduleHandler.Delete)
			})

			// Client-facing surface: same handlers, client-flagged modules.
			pr.Group(func(cr chi.Router) {
				cr.Use(middleware.ClientFlag)
				cr.Get("/client/navigation", navHandler.Get)
			})
		})
	})
}
