package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/session"
	"github.com/frahmantamala/employee-console/pkg/logger"
	"github.com/jmoiron/sqlx"
)

// cliScope is the state-store scope holding the CLI's own credentials.
const cliScope = "cli"

type cliCredentials struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	User         auth.SessionUser `json:"user"`
}

var cliCredentialsKey = session.NewKey("credentials", cliCredentials{})

// cliEnv is one CLI invocation: the config, the services over the local state file,
// and the hydrated CLI state store.
type cliEnv struct {
	Config   *internal.Config
	Services *services
	State    *session.Store
	Logger   *slog.Logger
	Out      io.Writer

	db *sqlx.DB
}

func openCLI(ctx context.Context) (*cliEnv, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	lg := logger.LoggerWrapper()

	gdb, sdb, err := openLocalState(ctx, cfg.Database.LocalStatePath)
	if err != nil {
		return nil, err
	}

	svc, err := buildServices(ctx, cfg, gdb, sdb, lg)
	if err != nil {
		_ = sdb.Close()
		return nil, err
	}

	state, err := svc.States.Open(ctx, cliScope)
	if err != nil {
		svc.Close()
		_ = sdb.Close()
		return nil, fmt.Errorf("failed to read local state: %w", err)
	}

	return &cliEnv{
		Config:   cfg,
		Services: svc,
		State:    state,
		Logger:   lg,
		Out:      os.Stdout,
		db:       sdb,
	}, nil
}

func (e *cliEnv) Close() {
	e.Services.Close()
	_ = e.db.Close()
}

// Session resolves the stored credentials, refreshing the access token once when it has expired.
func (e *cliEnv) Session(ctx context.Context) (*auth.Session, error) {
	creds, ok := session.Lookup(e.State, cliCredentialsKey)
	if !ok || creds.AccessToken == "" {
		return nil, fmt.Errorf("not signed in, run login first: %w", internal.ErrSessionNotFound)
	}

	sess, err := e.Services.Auth.ResolveSession(ctx, creds.AccessToken)
	if err == nil {
		return sess, nil
	}

	tokens, refreshErr := e.Services.Auth.Refresh(ctx, creds.RefreshToken)
	if refreshErr != nil {
		_ = e.State.Delete(ctx, cliCredentialsKey.Name())
		return nil, fmt.Errorf("session expired, run login again: %w", err)
	}
	creds.AccessToken = tokens.AccessToken
	creds.RefreshToken = tokens.RefreshToken
	if err := session.Set(ctx, e.State, cliCredentialsKey, creds); err != nil {
		return nil, err
	}
	return e.Services.Auth.ResolveSession(ctx, creds.AccessToken)
}

func (e *cliEnv) printJSON(v interface{}) error {
	enc := json.NewEncoder(e.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withCLI runs fn against an opened CLI environment and always closes it.
func withCLI(fn func(ctx context.Context, env *cliEnv) error) error {
	ctx := context.Background()
	env, err := openCLI(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(ctx, env)
}
