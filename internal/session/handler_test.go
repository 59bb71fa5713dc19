package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/session"
	sessionPostgres "github.com/frahmantamala/employee-console/internal/session/postgres"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Preferences handler", func() {
	var (
		sqldb  *sqlx.DB
		router chi.Router
	)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, target, strings.NewReader(body)))
		return w
	}

	BeforeEach(func() {
		sqldb = openStateDB()
		states := session.NewProvider(sessionPostgres.NewStateRepository(sqldb))
		h := session.NewHandler(states, session.SidebarPinned, layoutKey)

		sess := &auth.Session{ID: "s-1", User: auth.SessionUser{ID: "u-1"}}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), sess)))
			})
		})
		router.Get("/preferences", h.GetPreferences)
		router.Put("/preferences/{key}", h.PutPreference)
		router.Delete("/preferences/{key}", h.DeletePreference)
	})

	AfterEach(func() {
		Expect(sqldb.Close()).To(Succeed())
	})

	It("stores and lists registered keys", func() {
		Expect(do(http.MethodPut, "/preferences/sidebarPinned", "true").Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/preferences", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Preferences map[string]json.RawMessage `json:"preferences"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(string(body.Preferences["sidebarPinned"])).To(Equal("true"))
	})

	It("rejects values of the wrong shape", func() {
		Expect(do(http.MethodPut, "/preferences/layout", `{"wide":"yes"}`).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPut, "/preferences/sidebarPinned", `not json`).Code).To(Equal(http.StatusBadRequest))
	})

	It("refuses unknown keys", func() {
		Expect(do(http.MethodPut, "/preferences/theme", `"dark"`).Code).To(Equal(http.StatusNotFound))
	})

	It("deletes a preference", func() {
		Expect(do(http.MethodPut, "/preferences/sidebarPinned", "true").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodDelete, "/preferences/sidebarPinned", "").Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, "/preferences", "").Body.String()).NotTo(ContainSubstring("sidebarPinned"))
	})
})
