package navigation

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
}

func NewHandler() *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{BaseHandler: transport.NewBaseHandler(lg)}
}

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": Menu(sess.User.Access)})
}

func (h *Handler) GetHome(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return
	}
	h.WriteJSON(w, http.StatusOK, BuildHome(sess.User.Name, sess.User.Access, r.URL.Query().Get("q")))
}

// GetPages reports, for every console screen, whether the caller may open it.
func (h *Handler) GetPages(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	userAccess := ""
	if sess != nil {
		userAccess = sess.User.Access
	}

	type pageView struct {
		Page
		Allowed bool `json:"allowed"`
	}
	out := make([]pageView, 0, len(Pages))
	for _, p := range Pages {
		out = append(out, pageView{Page: p, Allowed: CanOpen(p, sess != nil, userAccess)})
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"pages": out})
}

// ToolPage serves the placeholder screen of a tool that has no backend yet.
func (h *Handler) ToolPage(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tool, ok := ToolByRoute(route)
		if !ok {
			h.HandleError(w, internal.ErrPageNotFound)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"tool":   tool,
			"status": "coming_soon",
		})
	}
}

// NotFound answers any route the console does not know.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.HandleError(w, internal.ErrPageNotFound)
}
