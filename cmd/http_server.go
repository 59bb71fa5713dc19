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

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/audit"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/navigation"
	"github.com/frahmantamala/employee-console/internal/places"
	"github.com/frahmantamala/employee-console/internal/profile"
	"github.com/frahmantamala/employee-console/internal/session"
	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/internal/transport/middleware"
	"github.com/frahmantamala/employee-console/internal/transport/rest"
	"github.com/frahmantamala/employee-console/internal/upload"
	"github.com/frahmantamala/employee-console/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the console HTTP server in front of the HR backend`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Services *services
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
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
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.Services.Close()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	svc := deps.Services

	health := rest.NewHealthHandler(deps.DB.DB)
	if svc.redis != nil {
		health.WithCheck("redis", func(ctx context.Context) error {
			return svc.redis.Ping(ctx).Err()
		})
	}
	if svc.store != nil {
		health.WithCheck("storage", svc.store.Ping)
	}

	var placesHandler *places.Handler
	if cfg.Places.APIKey != "" {
		placesHandler = places.NewHandler(places.NewClient(places.Config{
			APIKey:  cfg.Places.APIKey,
			BaseURL: cfg.Places.BaseURL,
			Timeout: cfg.Places.Timeout,
		}, deps.Logger))
	}

	handlers := rest.Handlers{
		Health:      health,
		Auth:        auth.NewHandler(svc.Auth, cfg.Server.LoginRoute, deps.Logger),
		Profile:     profile.NewHandler(svc.Profile),
		Employee:    employee.NewHandler(svc.Employees, svc.States),
		Audit:       audit.NewHandler(svc.Audit),
		Navigation:  navigation.NewHandler(),
		Upload:      upload.NewHandler(svc.Uploads),
		Places:      placesHandler,
		Preferences: session.NewHandler(svc.States, session.SidebarPinned, employee.ViewStateKey),
	}

	opts := rest.RouterOptions{Config: cfg, Logger: deps.Logger}
	if doc, err := middleware.LoadOpenAPI(context.Background(), cfg.Server.OpenAPIPath); err != nil {
		deps.Logger.Warn("request validation disabled", "path", cfg.Server.OpenAPIPath, "error", err)
	} else {
		base := transport.NewBaseHandler(deps.Logger)
		validator, err := middleware.NewRequestValidator(doc, rest.APIBasePath, deps.Logger, base.HandleError)
		if err != nil {
			deps.Logger.Warn("request validation disabled", "error", err)
		} else {
			opts.Validator = validator
		}
	}

	rest.RegisterAllRoutes(deps.Router, handlers, opts)
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	svc, err := buildServices(ctx, config, gdb, db, lg)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Router:   chi.NewRouter(),
		Services: svc,
	}, nil
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

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx connection pool with the gorm session repository.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
