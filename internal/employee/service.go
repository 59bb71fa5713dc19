package employee

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/session"
)

// ViewStateKey persists the directory screen per user.
var ViewStateKey = session.NewKey("directoryView", NewViewState())

// RepositoryAPI is the HR backend holding employee records.
type RepositoryAPI interface {
	List(ctx context.Context, token string) ([]User, error)
	Get(ctx context.Context, token, id string) (*User, error)
	Create(ctx context.Context, token string, u User) (*User, string, error)
	Update(ctx context.Context, token, id string, u User) (*User, error)
}

// CacheAPI keeps the employee list between requests.
type CacheAPI interface {
	Get(ctx context.Context, key string) ([]User, bool, error)
	Set(ctx context.Context, key string, users []User, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type Config struct {
	PageSize int
	CacheTTL time.Duration
}

type Service struct {
	repo     RepositoryAPI
	cache    CacheAPI
	pageSize int
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService builds the directory service. cache may be nil.
func NewService(repo RepositoryAPI, cache CacheAPI, cfg Config, logger *slog.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = internal.DefaultPageSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = internal.DefaultDirectoryTTL
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		pageSize: cfg.PageSize,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
	}
}

func (s *Service) PageSize() int { return s.pageSize }

func listCacheKey(ctx context.Context) string {
	if uid := internal.UserIDFromContext(ctx); uid != "" {
		return "users:list:" + uid
	}
	return "users:list"
}

// List returns every employee, served from the cache while it is fresh.
func (s *Service) List(ctx context.Context, token string) ([]User, error) {
	key := listCacheKey(ctx)
	if s.cache != nil {
		users, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("employee cache read failed", "error", err)
		} else if ok {
			return users, nil
		}
	}

	users, err := s.repo.List(ctx, token)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, err
	}
	if users == nil {
		users = []User{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, users, s.cacheTTL); err != nil {
			s.logger.Warn("employee cache write failed", "error", err)
		}
	}
	return users, nil
}

func (s *Service) View(ctx context.Context, token string, state ViewState) (*View, error) {
	users, err := s.List(ctx, token)
	if err != nil {
		return nil, err
	}
	v := Apply(users, state, s.pageSize)
	return &v, nil
}

func (s *Service) FilterOptions(ctx context.Context, token string) (*FilterOptions, error) {
	users, err := s.List(ctx, token)
	if err != nil {
		return nil, err
	}
	opts := BuildFilterOptions(users)
	return &opts, nil
}

func (s *Service) Candidates(ctx context.Context, token, accessToken string) ([]User, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, internal.NewValidationFieldError("access", "Access is required", internal.ErrCodeRequired)
	}
	users, err := s.List(ctx, token)
	if err != nil {
		return nil, err
	}
	return Sort(Candidates(users, accessToken), DefaultSort()), nil
}

// Export writes every row of the current view (not just one page) with the visible columns.
func (s *Service) Export(ctx context.Context, token string, state ViewState, w io.Writer) error {
	users, err := s.List(ctx, token)
	if err != nil {
		return err
	}
	state = state.Normalize()
	rows := Rows(users, state)
	if err := WriteXLSX(w, rows, state.Columns.Visible()); err != nil {
		s.logger.Error("failed to write employee export", "error", err)
		return internal.NewInternalError("failed to export employees", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, token, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, internal.ErrUserNotFound
	}
	u, err := s.repo.Get(ctx, token, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	clean := u.Sanitized()
	return &clean, nil
}

// CreateResult is returned once per created employee. InitialPassword is only set when
// the console generated it and is never stored.
type CreateResult struct {
	User            *User  `json:"user"`
	Message         string `json:"message"`
	InitialPassword string `json:"initialPassword,omitempty"`
}

func (s *Service) Create(ctx context.Context, token string, u User) (*CreateResult, error) {
	if err := ValidateCreate(u); err != nil {
		return nil, err
	}

	var generated string
	if u.Password == "" {
		pw, err := GenerateInitialPassword()
		if err != nil {
			return nil, internal.NewInternalError("Failed to generate password", err)
		}
		u.Password = pw
		generated = pw
	}

	created, message, err := s.repo.Create(ctx, token, u)
	if err != nil {
		s.logger.Error("failed to create employee", "code", u.Code, "error", err)
		return nil, err
	}
	s.invalidate(ctx)

	if created == nil {
		created = &u
	}
	clean := created.Sanitized()
	return &CreateResult{User: &clean, Message: message, InitialPassword: generated}, nil
}

func (s *Service) Update(ctx context.Context, token, id string, u User) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, internal.ErrUserNotFound
	}
	if err := ValidateUpdate(u); err != nil {
		return nil, err
	}
	u.ID = id

	updated, err := s.repo.Update(ctx, token, id, u)
	if err != nil {
		s.logger.Error("failed to update employee", "user_id", id, "error", err)
		return nil, err
	}
	s.invalidate(ctx)

	if updated == nil {
		updated = &u
	}
	clean := updated.Sanitized()
	return &clean, nil
}

// Invalidate drops cached lists after a change made elsewhere (profile edits, uploads).
func (s *Service) Invalidate(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("employee cache invalidation failed", "error", err)
	}
}
