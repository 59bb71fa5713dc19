package employee

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/session"
	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/pkg/logger"
	"github.com/go-chi/chi"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ServiceAPI interface {
	View(ctx context.Context, token string, state ViewState) (*View, error)
	FilterOptions(ctx context.Context, token string) (*FilterOptions, error)
	Candidates(ctx context.Context, token, accessToken string) ([]User, error)
	Export(ctx context.Context, token string, state ViewState, w io.Writer) error
	Get(ctx context.Context, token, id string) (*User, error)
	Create(ctx context.Context, token string, u User) (*CreateResult, error)
	Update(ctx context.Context, token, id string, u User) (*User, error)
}

// StateOpener hands out the hydrated preference store of one user.
type StateOpener interface {
	Open(ctx context.Context, scope string) (*session.Store, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	States  StateOpener
}

// NewHandler builds the directory handler. Without states the view is not remembered between requests.
func NewHandler(service ServiceAPI, states StateOpener) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		States:      states,
	}
}

type sortRequest struct {
	Field SortField `json:"field"`
}

type columnsRequest struct {
	Column Column `json:"column,omitempty"`
	Preset Preset `json:"preset,omitempty"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return nil, false
	}
	return sess, true
}

// loadState returns the remembered view of the user, or a fresh one.
func (h *Handler) loadState(ctx context.Context, userID string) (ViewState, *session.Store) {
	if h.States == nil {
		return NewViewState(), nil
	}
	store, err := h.States.Open(ctx, userID)
	if err != nil {
		h.Logger.Warn("directory view state unavailable", "user_id", userID, "error", err)
		return NewViewState(), nil
	}
	return session.Get(store, ViewStateKey).Normalize(), store
}

func (h *Handler) saveState(ctx context.Context, store *session.Store, state ViewState) {
	if store == nil {
		return
	}
	if err := session.Set(ctx, store, ViewStateKey, state); err != nil {
		h.Logger.Warn("failed to remember directory view", "scope", store.Scope(), "error", err)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, sess *auth.Session, store *session.Store, state ViewState) {
	view, err := h.Service.View(r.Context(), sess.UpstreamToken, state)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.saveState(r.Context(), store, state)
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	state, store := h.loadState(r.Context(), sess.User.ID)
	state, err := ApplyQuery(state, r.URL.Query())
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.render(w, r, sess, store, state)
}

// ToggleSort flips the direction for the current column or sorts ascending by a new one.
func (h *Handler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req sortRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	state, store := h.loadState(r.Context(), sess.User.ID)
	state, err := state.WithSort(req.Field)
	if err != nil {
		h.HandleError(w, internal.NewValidationFieldError("field", err.Error(), internal.ErrCodeInvalidQuery))
		return
	}
	h.render(w, r, sess, store, state)
}

func (h *Handler) UpdateColumns(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req columnsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	state, store := h.loadState(r.Context(), sess.User.ID)
	switch {
	case req.Preset != "":
		next, err := state.WithPreset(req.Preset)
		if err != nil {
			h.HandleError(w, internal.NewValidationFieldError("preset", err.Error(), internal.ErrCodeInvalidQuery))
			return
		}
		state = next
	case req.Column != "":
		if _, known := ColumnByID(req.Column); !known {
			h.HandleError(w, internal.NewValidationFieldError("column", "unknown column "+strconv.Quote(string(req.Column)), internal.ErrCodeInvalidQuery))
			return
		}
		state = state.WithColumnToggled(req.Column)
	default:
		h.HandleError(w, internal.NewValidationFieldError("column", "column or preset is required", internal.ErrCodeRequired))
		return
	}
	h.render(w, r, sess, store, state)
}

func (h *Handler) ResetView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	_, store := h.loadState(r.Context(), sess.User.ID)
	h.render(w, r, sess, store, NewViewState())
}

func (h *Handler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	opts, err := h.Service.FilterOptions(r.Context(), sess.UpstreamToken)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, opts)
}

func (h *Handler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	users, err := h.Service.Candidates(r.Context(), sess.UpstreamToken, r.URL.Query().Get("access"))
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// ExportEmployees downloads the current view as a workbook. Query parameters apply to
// this export only and are not remembered.
func (h *Handler) ExportEmployees(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	state, _ := h.loadState(r.Context(), sess.User.ID)
	state, err := ApplyQuery(state, r.URL.Query())
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.Service.Export(r.Context(), sess.UpstreamToken, state, &buf); err != nil {
		h.HandleError(w, err)
		return
	}

	filename := "employees-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Error("ExportEmployees: failed to stream workbook", "error", err)
	}
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	u, err := h.Service.Get(r.Context(), sess.UpstreamToken, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": u})
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var u User
	if err := h.DecodeJSON(r, &u); err != nil {
		h.HandleError(w, err)
		return
	}

	result, err := h.Service.Create(r.Context(), sess.UpstreamToken, u)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.Logger.Info("CreateEmployee: employee created",
		"code", result.User.Code,
		"generated_password", result.InitialPassword != "",
		"created_by", sess.User.ID)

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var u User
	if err := h.DecodeJSON(r, &u); err != nil {
		h.HandleError(w, err)
		return
	}

	updated, err := h.Service.Update(r.Context(), sess.UpstreamToken, chi.URLParam(r, "id"), u)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": updated})
}
