package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/access"
	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	LoginRoute string
}

func NewHandler(svc ServiceAPI, loginRoute string, lg *slog.Logger) *Handler {
	if loginRoute == "" {
		loginRoute = internal.DefaultLoginRoute
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		LoginRoute:  loginRoute,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Error("authentication failed", "error", err)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, err)
		return
	}

	tokens, err := h.Service.Refresh(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Error("token refresh failed", "error", err)
		if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode == http.StatusUnauthorized {
			h.WriteRedirectError(w, appErr, h.LoginRoute)
			return
		}
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		h.WriteRedirectError(w, internal.ErrSessionNotFound, h.LoginRoute)
		return
	}

	if err := h.Service.Logout(r.Context(), sess.ID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{
		"message":     LogoutMessage,
		"redirect_to": h.LoginRoute,
	})
}

type meResponse struct {
	User         SessionUser         `json:"user"`
	Role         access.Role         `json:"role"`
	Capabilities []access.Capability `json:"capabilities"`
	ExpiresAt    time.Time           `json:"expires_at"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		h.WriteRedirectError(w, internal.ErrSessionNotFound, h.LoginRoute)
		return
	}

	parsed := sess.User.ParsedAccess()
	caps := parsed.Role.Capabilities()
	if caps == nil {
		caps = []access.Capability{}
	}
	h.WriteJSON(w, http.StatusOK, meResponse{
		User:         sess.User,
		Role:         parsed.Role,
		Capabilities: caps,
		ExpiresAt:    sess.ExpiresAt.UTC(),
	})
}

// AuthMiddleware resolves the bearer token into a session. No token, a bad token and an
// expired session all answer 401 pointing back at the login route.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteRedirectError(w, internal.ErrSessionNotFound, h.LoginRoute)
			return
		}

		sess, err := h.Service.ResolveSession(r.Context(), token)
		if err != nil {
			appErr, ok := internal.IsAppError(err)
			if !ok || appErr.StatusCode != http.StatusUnauthorized {
				h.HandleError(w, err)
				return
			}
			h.WriteRedirectError(w, appErr, h.LoginRoute)
			return
		}

		ctx := ContextWithSession(r.Context(), sess)
		ctx = internal.ContextWithUserID(ctx, sess.User.ID)
		ctx = logger.With(ctx, "userID", sess.User.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAccess gates a route on the session's access string containing one of the tokens.
// With no tokens only a session is required.
func (h *Handler) RequireAccess(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				h.WriteRedirectError(w, internal.ErrSessionNotFound, h.LoginRoute)
				return
			}
			if !sess.Allow(required...) {
				h.Logger.Warn("access denied",
					"user_id", sess.User.ID,
					"user_access", sess.User.Access,
					"required", required)
				h.WriteRedirectError(w, internal.ErrAccessDenied, h.LoginRoute)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability gates a route on the role parsed from the session's access string.
func (h *Handler) RequireCapability(capability access.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				h.WriteRedirectError(w, internal.ErrSessionNotFound, h.LoginRoute)
				return
			}
			if !sess.User.ParsedAccess().Can(capability) {
				h.Logger.Warn("capability denied",
					"user_id", sess.User.ID,
					"user_access", sess.User.Access,
					"capability", capability)
				h.WriteRedirectError(w, internal.ErrAccessDenied, h.LoginRoute)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
