package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	EntityHistory(ctx context.Context, token, entityType, entityID string, q Query) (*Page, error)
	Search(ctx context.Context, token string, q Query) (*Page, error)
	Recent(ctx context.Context, token string, limit int) ([]Log, error)
	Summary(ctx context.Context, token string) (json.RawMessage, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return "", false
	}
	return sess.UpstreamToken, true
}

func (h *Handler) SearchLogs(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.HandleError(w, err)
		return
	}

	page, err := h.Service.Search(r.Context(), token, q)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) EntityLogs(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.HandleError(w, err)
		return
	}

	page, err := h.Service.EntityHistory(r.Context(), token, chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"), q)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.HandleError(w, internal.NewValidationFieldError("limit", "limit must be a number", internal.ErrCodeInvalidQuery))
			return
		}
		limit = n
	}

	logs, err := h.Service.Recent(r.Context(), token, limit)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, logs)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.Summary(r.Context(), token)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
