package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/frahmantamala/employee-console/internal/audit"
)

type AuditRepository struct {
	client *Client
}

func NewAuditRepository(client *Client) audit.RepositoryAPI {
	return &AuditRepository{client: client}
}

func (r *AuditRepository) EntityLogs(ctx context.Context, token, entityType, entityID string, q audit.Query) (*audit.Page, error) {
	page := &audit.Page{}
	err := r.client.decode(ctx, call{
		op:     "audit_entity",
		method: http.MethodGet,
		path:   "/audit/entity/" + url.PathEscape(entityType) + "/" + url.PathEscape(entityID),
		token:  token,
		query:  q.EntityValues(),
	}, "", page)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *AuditRepository) Search(ctx context.Context, token string, q audit.Query) (*audit.Page, error) {
	page := &audit.Page{}
	err := r.client.decode(ctx, call{
		op:     "audit_search",
		method: http.MethodGet,
		path:   "/audit/",
		token:  token,
		query:  q.SearchValues(),
	}, "", page)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *AuditRepository) Recent(ctx context.Context, token string, limit int) ([]audit.Log, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}
	var logs []audit.Log
	err := r.client.decode(ctx, call{
		op:     "audit_recent",
		method: http.MethodGet,
		path:   "/audit/recent",
		token:  token,
		query:  query,
	}, "", &logs)
	return logs, err
}

// Summary is passed through untouched; its shape belongs to the backend.
func (r *AuditRepository) Summary(ctx context.Context, token string) (json.RawMessage, error) {
	body, err := r.client.do(ctx, call{
		op:     "audit_summary",
		method: http.MethodGet,
		path:   "/audit/summary",
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(body), nil
}
