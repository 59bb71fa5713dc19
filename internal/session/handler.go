package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/pkg/logger"
	"github.com/go-chi/chi"
)

const maxPreferenceBytes = 64 << 10

type Opener interface {
	Open(ctx context.Context, scope string) (*Store, error)
}

// Handler exposes the signed-in user's preferences. Only registered keys can be written.
type Handler struct {
	*transport.BaseHandler
	States Opener
	codecs map[string]Codec
}

func NewHandler(states Opener, keys ...Codec) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	codecs := make(map[string]Codec, len(keys))
	for _, k := range keys {
		codecs[k.Name()] = k
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		States:      states,
		codecs:      codecs,
	}
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return nil, false
	}
	store, err := h.States.Open(r.Context(), sess.User.ID)
	if err != nil {
		h.HandleError(w, internal.NewInternalError("Failed to load preferences", err))
		return nil, false
	}
	return store, true
}

func (h *Handler) codec(w http.ResponseWriter, r *http.Request) (Codec, bool) {
	key := chi.URLParam(r, "key")
	c, ok := h.codecs[key]
	if !ok {
		h.HandleError(w, internal.NewNotFoundError("Unknown preference "+key, internal.ErrCodeInvalidQuery))
		return nil, false
	}
	return c, true
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	store, ok := h.open(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"preferences": store.Snapshot()})
}

func (h *Handler) PutPreference(w http.ResponseWriter, r *http.Request) {
	c, ok := h.codec(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPreferenceBytes))
	if err != nil || !json.Valid(raw) {
		h.HandleError(w, internal.NewValidationFieldError(c.Name(), "value must be valid JSON", internal.ErrCodeValidationFailed))
		return
	}
	if err := c.Check(raw); err != nil {
		h.HandleError(w, internal.NewValidationFieldError(c.Name(), err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	store, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := store.SetRaw(r.Context(), c.Name(), raw); err != nil {
		h.HandleError(w, internal.NewInternalError("Failed to save preference", err))
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"key": c.Name(), "value": json.RawMessage(raw)})
}

func (h *Handler) DeletePreference(w http.ResponseWriter, r *http.Request) {
	c, ok := h.codec(w, r)
	if !ok {
		return
	}
	store, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := store.Delete(r.Context(), c.Name()); err != nil {
		h.HandleError(w, internal.NewInternalError("Failed to delete preference", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
