package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/aiservice"
	"github.com/frahmantamala/rbac-admin/internal/association"
	associationPostgres "github.com/frahmantamala/rbac-admin/internal/association/postgres"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/frahmantamala/rbac-admin/internal/command"
	commandPostgres "github.com/frahmantamala/rbac-admin/internal/command/postgres"
	"github.com/frahmantamala/rbac-admin/internal/core/events"
	"github.com/frahmantamala/rbac-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-admin/internal/permission/postgres"
	"github.com/frahmantamala/rbac-admin/internal/role"
	rolePostgres "github.com/frahmantamala/rbac-admin/internal/role/postgres"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
	"github.com/frahmantamala/rbac-admin/pkg/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// app is the wired service graph shared by the server, seed and ask commands.
type app struct {
	Config  *internal.Config
	Logger  *slog.Logger
	DB      *sqlx.DB
	Gorm    *gorm.DB
	Bus     *events.EventBus
	Metrics *metrics.Metrics

	Permissions  *permission.Service
	Roles        *role.Service
	Associations *association.Service
	AI           *aiservice.Client
	Processor    *command.Processor
	Auth         *auth.Service
}

// newApp wires the service graph. inlineEvents publishes events synchronously, for commands
// that exit right after their work.
func newApp(cfg *internal.Config, inlineEvents bool) (*app, error) {
	lg := logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	m := metrics.New()

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)
	events.RegisterCounter(bus, m.EventPublished)

	var publisher events.Publisher = bus
	if inlineEvents {
		publisher = events.SyncPublisher{Bus: bus}
	}

	associationRepo := associationPostgres.NewAssociationRepository(gdb)
	permissionSvc := permission.NewService(permissionPostgres.NewPermissionRepository(gdb), associationRepo, publisher, lg)
	roleSvc := role.NewService(rolePostgres.NewRoleRepository(gdb), associationRepo, publisher, lg)
	associationSvc := association.NewService(associationRepo, roleSvc, permissionSvc, publisher, lg)

	aiClient := aiservice.NewClient(aiservice.Config{
		BaseURL:           cfg.AI.BaseURL,
		APIKey:            cfg.AI.APIKey,
		Model:             cfg.AI.Model,
		Temperature:       cfg.AI.Temperature,
		RequestTimeout:    cfg.AI.RequestTimeout,
		MaxRetries:        cfg.AI.MaxRetries,
		RetryBaseDelay:    cfg.AI.RetryBaseDelay,
		CacheTTL:          cfg.AI.CacheTTL,
		RequestsPerSecond: cfg.AI.RequestsPerSec,
		Burst:             cfg.AI.Burst,
	}, m, lg)
	if !aiClient.Enabled() {
		lg.Warn("ai.api_key is not set; natural-language commands will answer 503")
	}

	processor := command.NewProcessor(
		command.NewLLMInterpreter(aiClient, lg),
		commandPostgres.NewSnapshotRepository(db),
		command.NewExecutor(permissionSvc, roleSvc, associationSvc, lg),
		m,
		lg,
	)

	a := &app{
		Config:       cfg,
		Logger:       lg,
		DB:           db,
		Gorm:         gdb,
		Bus:          bus,
		Metrics:      m,
		Permissions:  permissionSvc,
		Roles:        roleSvc,
		Associations: associationSvc,
		AI:           aiClient,
		Processor:    processor,
	}

	if cfg.Security.AuthEnabled {
		a.Auth = auth.NewService(
			auth.Credentials{Email: cfg.Security.AdminEmail, PasswordHash: cfg.Security.AdminPasswordHash},
			auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration),
			lg,
		)
	}

	return a, nil
}

// Close waits briefly for audit handlers, then releases the pool.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Bus.Drain(ctx); err != nil {
		a.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both read models see the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
}
