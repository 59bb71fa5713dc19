package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/employee-console/db"
	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/audit"
	"github.com/frahmantamala/employee-console/internal/auth"
	authPostgres "github.com/frahmantamala/employee-console/internal/auth/postgres"
	"github.com/frahmantamala/employee-console/internal/core/events"
	"github.com/frahmantamala/employee-console/internal/employee"
	employeeRedis "github.com/frahmantamala/employee-console/internal/employee/redis"
	"github.com/frahmantamala/employee-console/internal/profile"
	"github.com/frahmantamala/employee-console/internal/session"
	statePostgres "github.com/frahmantamala/employee-console/internal/session/postgres"
	"github.com/frahmantamala/employee-console/internal/upload"
	"github.com/frahmantamala/employee-console/internal/upload/gcs"
	"github.com/frahmantamala/employee-console/internal/upstream"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// services is everything the HTTP server and the CLI commands share.
type services struct {
	Auth      *auth.Service
	Employees *employee.Service
	Profile   *profile.Service
	Audit     *audit.Service
	Uploads   *upload.Service
	States    *session.Provider
	Bus       *events.EventBus

	store *gcs.Store
	redis *redis.Client
}

// buildServices wires the console services over a session database (gorm) and a
// preference database (sqlx). Redis and object storage are optional.
func buildServices(ctx context.Context, cfg *internal.Config, sessionsDB *gorm.DB, stateDB *sqlx.DB, lg *slog.Logger) (*services, error) {
	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	}, lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(
		authPostgres.NewSessionRepository(sessionsDB),
		upstream.NewAuthenticator(client),
		tokens,
		auth.ServiceConfig{
			SessionTTL: cfg.Security.RefreshTokenDuration,
			BCryptCost: cfg.Security.BCryptCost,
		},
		lg,
	)

	s := &services{
		Auth:   authService,
		States: session.NewProvider(statePostgres.NewStateRepository(stateDB)),
		Bus:    events.NewEventBus(lg),
	}

	var cache employee.CacheAPI
	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			// the directory still works without a cache, just slower
			lg.Warn("redis unavailable, directory cache disabled", "addr", cfg.Redis.Addr, "error", err)
			_ = s.redis.Close()
			s.redis = nil
		} else {
			cache = employeeRedis.NewListCache(s.redis, cfg.Redis.Prefix)
		}
	}

	s.Employees = employee.NewService(upstream.NewEmployeeRepository(client), cache, employee.Config{
		PageSize: cfg.Directory.PageSize,
		CacheTTL: cfg.Directory.CacheTTL,
	}, lg)
	s.Profile = profile.NewService(upstream.NewProfileRepository(client), authService, s.Employees, lg)
	s.Audit = audit.NewService(upstream.NewAuditRepository(client), lg)

	var objects upload.ObjectStore
	if cfg.Storage.Bucket != "" {
		store, err := gcs.NewStore(ctx, gcs.Config{
			Bucket:          cfg.Storage.Bucket,
			CredentialsFile: cfg.Storage.CredentialsFile,
			SignerEmail:     cfg.Storage.SignerEmail,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		s.store = store
		objects = store
	}
	s.Uploads = upload.NewService(objects, s.Bus, upload.Config{
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		SignedURLTTL:  cfg.Storage.SignedURLTTL,
		AcceptedTypes: cfg.Storage.AcceptedTypes,
		MaxFileSizeMB: cfg.Storage.MaxFileSizeMB,
	}, lg)

	if cfg.Storage.SyncProfilePictureURLs {
		profile.NewEventHandler(s.Profile, lg).RegisterEventHandlers(s.Bus)
	}

	return s, nil
}

func (s *services) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}

// openLocalState opens the CLI's SQLite file and brings its tables up to date.
func openLocalState(ctx context.Context, path string) (*gorm.DB, *sqlx.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local state %s: %w", path, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	goose.SetBaseFS(db.Migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, nil, err
	}
	if err := goose.UpContext(ctx, sqlDB, db.MigrationsDir); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate local state: %w", err)
	}

	return gdb, sqlx.NewDb(sqlDB, "sqlite3"), nil
}
