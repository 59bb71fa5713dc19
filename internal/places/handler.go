package places

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/pkg/logger"
	"github.com/go-chi/chi"
)

type LookupAPI interface {
	Autocomplete(ctx context.Context, input string) ([]Prediction, error)
	Details(ctx context.Context, placeID string) (*Place, error)
}

type Handler struct {
	*transport.BaseHandler
	Lookup LookupAPI
}

func NewHandler(lookup LookupAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Lookup:      lookup,
	}
}

func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.Lookup.Autocomplete(r.Context(), r.URL.Query().Get("input"))
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"predictions": predictions})
}

func (h *Handler) GetPlace(w http.ResponseWriter, r *http.Request) {
	place, err := h.Lookup.Details(r.Context(), chi.URLParam(r, "placeID"))
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, place)
}
