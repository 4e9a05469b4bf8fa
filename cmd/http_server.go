package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/rbac-admin/internal/association"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/frahmantamala/rbac-admin/internal/command"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	"github.com/frahmantamala/rbac-admin/internal/role"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/frahmantamala/rbac-admin/internal/transport/middleware"
	"github.com/frahmantamala/rbac-admin/internal/transport/rest"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	a, err := newApp(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	stop := make(chan struct{})
	router := setupRoutes(a, stop)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting HTTP server", "address", addr, "auth_enabled", cfg.Security.AuthEnabled)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
		}
	}

	close(stop)
	slog.Info("Server stopped")
}

func setupRoutes(a *app, stop <-chan struct{}) *chi.Mux {
	cfg := a.Config
	base := transport.NewBaseHandler(a.Logger)

	deps := rest.Dependencies{
		Base:               base,
		Health:             rest.NewHealthHandler(base, a.DB.DB, a.AI.Enabled(), cfg.AI.Model),
		Authorization:      auth.NewScopeAuthorization(a.Logger),
		PermissionHandler:  permission.NewHandler(base, a.Permissions),
		RoleHandler:        role.NewHandler(base, a.Roles),
		AssociationHandler: association.NewHandler(base, a.Associations),
		CommandHandler:     command.NewHandler(base, a.Processor),
		AllowedOrigins:     cfg.Server.Origins(),
	}

	if a.Auth != nil {
		deps.AuthHandler = auth.NewHandler(base, a.Auth)
	} else {
		a.Logger.Warn("authentication is disabled; every request runs with full scopes")
	}

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}, base)
		go limiter.Run(stop)
		deps.RateLimiter = limiter
	}

	if cfg.Observability.Metrics.Enabled {
		deps.Metrics = a.Metrics
		deps.MetricsPath = cfg.Observability.Metrics.Path
		deps.MetricsHandler = a.Metrics.Handler()
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, deps)
	return router
}
