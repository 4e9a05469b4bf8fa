package rest

import (
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal/association"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/frahmantamala/rbac-admin/internal/command"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	"github.com/frahmantamala/rbac-admin/internal/role"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/frahmantamala/rbac-admin/internal/transport/middleware"
	"github.com/frahmantamala/rbac-admin/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Dependencies carries everything the router mounts. Nil handlers are skipped, and a nil
// AuthHandler leaves the API open with a full-scope anonymous principal.
type Dependencies struct {
	Base               *transport.BaseHandler
	Health             *HealthHandler
	AuthHandler        *auth.Handler
	Authorization      *auth.ScopeAuthorization
	PermissionHandler  *permission.Handler
	RoleHandler        *role.Handler
	AssociationHandler *association.Handler
	CommandHandler     *command.Handler

	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	Metrics        middleware.HTTPObserver
	MetricsPath    string
	MetricsHandler http.Handler
	OpenAPIPath    string
}

func RegisterAllRoutes(router chi.Router, deps Dependencies) {
	// Apply global middleware
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.RecoveryMiddleware(deps.Base))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	router.Use(middleware.LoggingMiddleware)

	if deps.MetricsHandler != nil && deps.MetricsPath != "" {
		router.Method(http.MethodGet, deps.MetricsPath, deps.MetricsHandler)
	}

	// the document lives outside the API prefix
	openAPIPath := deps.OpenAPIPath
	if openAPIPath == "" {
		openAPIPath = "./api/openapi.yml"
	}
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, openAPIPath)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	authz := deps.Authorization
	if authz == nil {
		authz = auth.NewScopeAuthorization(deps.Base.Logger)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if deps.Health != nil {
			r.Get("/health", deps.Health.Health)
			r.Get("/ping", deps.Health.Ping)
		}

		if deps.AuthHandler != nil {
			r.Post("/auth/login", deps.AuthHandler.Login)
		}

		r.Group(func(pr chi.Router) {
			if deps.AuthHandler != nil {
				pr.Use(deps.AuthHandler.AuthMiddleware)
			} else {
				pr.Use(auth.AnonymousOperator)
			}
			pr.Use(authz.RequireRead())

			write := authz.RequireWrite()

			if deps.PermissionHandler != nil {
				pr.Route("/permissions", func(sr chi.Router) {
					deps.PermissionHandler.Routes(sr, write)
				})
			}
			if deps.RoleHandler != nil {
				pr.Route("/roles", func(sr chi.Router) {
					deps.RoleHandler.Routes(sr, write)
				})
			}
			if deps.AssociationHandler != nil {
				pr.Route("/associations", func(sr chi.Router) {
					deps.AssociationHandler.Routes(sr, write)
				})
			}

			if deps.CommandHandler != nil {
				pr.Group(func(ar chi.Router) {
					if deps.RateLimiter != nil {
						ar.Use(deps.RateLimiter.Middleware)
					}
					ar.Post("/ai-service/process", deps.CommandHandler.Process)

					ar.Group(func(wr chi.Router) {
						wr.Use(write)
						wr.Post("/ai-service/execute", deps.CommandHandler.ExecuteText)
						wr.Post("/ai-command", deps.CommandHandler.ExecuteCommand)
					})
				})
			}
		})
	})
}
