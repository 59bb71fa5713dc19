package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/audit"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/navigation"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Rest Suite")
}

type fakeAuthService struct {
	sessions  map[string]*auth.Session
	loggedOut []string
}

func (f *fakeAuthService) Login(ctx context.Context, dto auth.LoginDTO) (*auth.LoginResult, error) {
	return nil, internal.ErrSessionNotFound
}

func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.AuthTokens, error) {
	return nil, internal.ErrSessionNotFound
}

func (f *fakeAuthService) ResolveSession(ctx context.Context, accessToken string) (*auth.Session, error) {
	if sess, ok := f.sessions[accessToken]; ok {
		return sess, nil
	}
	return nil, internal.ErrSessionNotFound
}

func (f *fakeAuthService) Logout(ctx context.Context, sessionID string) error {
	f.loggedOut = append(f.loggedOut, sessionID)
	return nil
}

var _ = ginkgo.Describe("RegisterAllRoutes", func() {
	var (
		router      *chi.Mux
		cfg         *internal.Config
		dbErr       error
		authService *fakeAuthService
	)

	lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	ginkgo.BeforeEach(func() {
		dbErr = nil
		cfg = &internal.Config{}
		cfg.ApplyDefaults()
		cfg.Server.AllowedOrigins = "*"
		cfg.Observability.Metrics.Enabled = true

		authService = &fakeAuthService{sessions: map[string]*auth.Session{
			"admin-token": {ID: "s-1", User: auth.SessionUser{ID: "u-1", Name: "Ana", Access: "Admin"}},
			"staff-token": {ID: "s-2", User: auth.SessionUser{ID: "u-2", Name: "Ben", Access: "Employee"}},
		}}

		health := NewHealthHandler(nil).WithCheck("database", func(ctx context.Context) error { return dbErr })

		router = chi.NewRouter()
		RegisterAllRoutes(router, Handlers{
			Health:     health,
			Auth:       auth.NewHandler(authService, "/login", lg),
			Employee:   employee.NewHandler(nil, nil),
			Audit:      audit.NewHandler(nil),
			Navigation: navigation.NewHandler(),
		}, RouterOptions{Config: cfg, Logger: lg})
	})

	do := func(method, target, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		gomega.Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(gomega.Succeed())
		return body
	}

	ginkgo.It("answers ping and health without a session", func() {
		gomega.Expect(do(http.MethodGet, "/api/v1/ping", "").Code).To(gomega.Equal(http.StatusOK))

		w := do(http.MethodGet, "/api/v1/health", "")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(decode(w)["status"]).To(gomega.Equal("healthy"))
	})

	ginkgo.It("reports a failing dependency as unavailable", func() {
		dbErr = errors.New("connection refused")

		w := do(http.MethodGet, "/api/v1/health", "")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusServiceUnavailable))
		components := decode(w)["components"].(map[string]interface{})
		gomega.Expect(components["database"].(map[string]interface{})["message"]).To(gomega.Equal("connection refused"))
	})

	ginkgo.It("sends anonymous callers back to the login route", func() {
		w := do(http.MethodGet, "/api/v1/menu", "")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(decode(w)["redirect_to"]).To(gomega.Equal("/login"))

		gomega.Expect(do(http.MethodGet, "/api/v1/menu", "forged").Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("logs out the bearer's session", func() {
		w := do(http.MethodPost, "/api/v1/auth/logout", "admin-token")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(decode(w)["redirect_to"]).To(gomega.Equal("/login"))
		gomega.Expect(authService.loggedOut).To(gomega.Equal([]string{"s-1"}))

		gomega.Expect(do(http.MethodPost, "/api/v1/auth/logout", "").Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("serves the menu to any session", func() {
		gomega.Expect(do(http.MethodGet, "/api/v1/menu", "staff-token").Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(do(http.MethodGet, "/api/v1/tools/pdf-tools", "staff-token").Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("keeps the directory and the audit log from plain employees", func() {
		w := do(http.MethodGet, "/api/v1/employees", "staff-token")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(decode(w)["redirect_to"]).To(gomega.Equal("/login"))

		gomega.Expect(do(http.MethodGet, "/api/v1/audit", "staff-token").Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("answers unknown routes with the page-not-found envelope", func() {
		w := do(http.MethodGet, "/nowhere", "")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusNotFound))
		gomega.Expect(decode(w)["error"].(map[string]interface{})["message"]).To(gomega.Equal("Page not found"))
	})

	ginkgo.It("exposes prometheus metrics", func() {
		do(http.MethodGet, "/api/v1/ping", "")

		w := do(http.MethodGet, "/metrics", "")
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(w.Body.String()).To(gomega.ContainSubstring("/api/v1/ping"))
	})
})
