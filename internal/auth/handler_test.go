package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	authPostgres "github.com/frahmantamala/employee-console/internal/auth/postgres"
	sessionDatamodel "github.com/frahmantamala/employee-console/internal/core/datamodel/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type staticAuthenticator map[string]auth.SessionUser

func (s staticAuthenticator) Authenticate(ctx context.Context, email, password string) (*auth.UpstreamLogin, error) {
	user, ok := s[email]
	if !ok || password != "secret123" {
		return nil, internal.NewUpstreamError(http.StatusUnauthorized, "Invalid credentials", nil)
	}
	return &auth.UpstreamLogin{Token: "upstream-" + user.ID, User: user}, nil
}

type redirectBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RedirectTo string `json:"redirect_to"`
}

var _ = Describe("Auth Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *auth.Handler
		reached bool
	)

	login := func(email string) *auth.LoginResult {
		body, _ := json.Marshal(auth.LoginDTO{Email: email, Password: "secret123"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var result auth.LoginResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		return &result
	}

	protected := func(required ...string) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			Expect(auth.SessionFromContext(r.Context())).NotTo(BeNil())
			Expect(internal.UserIDFromContext(r.Context())).NotTo(BeEmpty())
			w.WriteHeader(http.StatusNoContent)
		})
		return handler.AuthMiddleware(handler.RequireAccess(required...)(inner))
	}

	BeforeEach(func() {
		var err error
		reached = false
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&sessionDatamodel.Session{})).To(Succeed())

		repo := authPostgres.NewSessionRepository(db)
		tokens := auth.NewJWTTokenGenerator(
			"access-secret-access-secret-0123456789",
			"refresh-secret-refresh-secret-012345678",
			15*time.Minute, time.Hour)
		authn := staticAuthenticator{
			"marketing@example.com": {ID: "10", Name: "Mira", Access: "Marketing Incharge"},
			"employee@example.com":  {ID: "11", Name: "Eko", Access: "Employee"},
		}
		svc := auth.NewService(repo, authn, tokens, auth.ServiceConfig{SessionTTL: time.Hour, BCryptCost: bcrypt.MinCost}, slogger)
		handler = auth.NewHandler(svc, "/login", slogger)
	})

	It("returns tokens and the home redirect on login", func() {
		result := login("marketing@example.com")
		Expect(result.AccessToken).NotTo(BeEmpty())
		Expect(result.RedirectTo).To(Equal("/home"))
		Expect(result.User.Name).To(Equal("Mira"))
	})

	It("answers 401 with the login route when no token is sent", func() {
		req := httptest.NewRequest(http.MethodGet, "/employees", nil)
		w := httptest.NewRecorder()
		protected("Admin", "Marketing").ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		var body redirectBody
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.RedirectTo).To(Equal("/login"))
		Expect(reached).To(BeFalse())
	})

	It("lets a Marketing Incharge through the directory gate", func() {
		result := login("marketing@example.com")
		req := httptest.NewRequest(http.MethodGet, "/employees", nil)
		req.Header.Set("Authorization", "Bearer "+result.AccessToken)
		w := httptest.NewRecorder()
		protected("Admin", "Marketing").ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(reached).To(BeTrue())
	})

	It("answers 403 with the login route for an Employee on the directory", func() {
		result := login("employee@example.com")
		req := httptest.NewRequest(http.MethodGet, "/employees", nil)
		req.Header.Set("Authorization", "Bearer "+result.AccessToken)
		w := httptest.NewRecorder()
		protected("Admin", "Marketing").ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusForbidden))
		var body redirectBody
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeAccessDenied)))
		Expect(body.RedirectTo).To(Equal("/login"))
		Expect(reached).To(BeFalse())
	})

	It("lets any session through a session-only route", func() {
		result := login("employee@example.com")
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", "Bearer "+result.AccessToken)
		w := httptest.NewRecorder()
		protected().ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNoContent))
	})

	It("logs out and then refuses the old token", func() {
		result := login("employee@example.com")

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+result.AccessToken)
		w := httptest.NewRecorder()
		handler.AuthMiddleware(http.HandlerFunc(handler.Logout)).ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body map[string]string
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["message"]).To(Equal("You have been logged out successfully."))

		req = httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", "Bearer "+result.AccessToken)
		w = httptest.NewRecorder()
		protected().ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("refreshes through the handler", func() {
		result := login("employee@example.com")
		body, _ := json.Marshal(auth.RefreshTokenDTO{RefreshToken: result.RefreshToken})
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.RefreshToken(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var tokens auth.AuthTokens
		Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
		Expect(tokens.AccessToken).NotTo(BeEmpty())
	})

	It("rejects bad credentials with the upstream status", func() {
		body, _ := json.Marshal(auth.LoginDTO{Email: "employee@example.com", Password: "nope"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("reports the caller's role and capabilities", func() {
		result := login("marketing@example.com")
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+result.AccessToken)
		w := httptest.NewRecorder()
		handler.AuthMiddleware(http.HandlerFunc(handler.Me)).ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["role"]).To(Equal("Marketing Incharge"))
		Expect(body["capabilities"]).To(ContainElement("view_directory"))
	})
})
