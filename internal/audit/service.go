package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/frahmantamala/employee-console/internal"
)

// RepositoryAPI is the backend holding audit records.
type RepositoryAPI interface {
	EntityLogs(ctx context.Context, token, entityType, entityID string, q Query) (*Page, error)
	Search(ctx context.Context, token string, q Query) (*Page, error)
	Recent(ctx context.Context, token string, limit int) ([]Log, error)
	Summary(ctx context.Context, token string) (json.RawMessage, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) EntityHistory(ctx context.Context, token, entityType, entityID string, q Query) (*Page, error) {
	if entityType == "" || entityID == "" {
		return nil, internal.NewValidationError("entity type and id are required", internal.ErrCodeInvalidQuery)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	page, err := s.repo.EntityLogs(ctx, token, entityType, entityID, q)
	if err != nil {
		s.logger.Error("failed to load entity audit logs", "entity_type", entityType, "entity_id", entityID, "error", err)
		return nil, err
	}
	normalizePage(page)
	return page, nil
}

func (s *Service) Search(ctx context.Context, token string, q Query) (*Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	page, err := s.repo.Search(ctx, token, q)
	if err != nil {
		s.logger.Error("failed to search audit logs", "error", err)
		return nil, err
	}
	normalizePage(page)
	return page, nil
}

func (s *Service) Recent(ctx context.Context, token string, limit int) ([]Log, error) {
	if limit < 0 || limit > MaxLimit {
		return nil, internal.NewValidationFieldError("limit", "limit must be between 0 and 100", internal.ErrCodeInvalidQuery)
	}
	logs, err := s.repo.Recent(ctx, token, limit)
	if err != nil {
		s.logger.Error("failed to load recent audit activity", "error", err)
		return nil, err
	}
	if logs == nil {
		logs = []Log{}
	}
	return logs, nil
}

func (s *Service) Summary(ctx context.Context, token string) (json.RawMessage, error) {
	summary, err := s.repo.Summary(ctx, token)
	if err != nil {
		s.logger.Error("failed to load audit summary", "error", err)
		return nil, err
	}
	return summary, nil
}

func normalizePage(p *Page) {
	if p.AuditLogs == nil {
		p.AuditLogs = []Log{}
	}
	for i := range p.AuditLogs {
		if p.AuditLogs[i].Changes == nil {
			p.AuditLogs[i].Changes = []Change{}
		}
	}
}
