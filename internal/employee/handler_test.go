package employee_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/employee-console/db"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/session"
	sessionPostgres "github.com/frahmantamala/employee-console/internal/session/postgres"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openStateDB() *sqlx.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := gdb.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	goose.SetBaseFS(db.Migrations)
	Expect(goose.SetDialect("sqlite3")).To(Succeed())
	Expect(goose.Up(sqlDB, db.MigrationsDir)).To(Succeed())
	return sqlx.NewDb(sqlDB, "sqlite3")
}

var _ = Describe("Handler", func() {
	var (
		stateDB *sqlx.DB
		router  chi.Router
		sess    *auth.Session
	)

	withSession := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), sess)))
		})
	}

	do := func(method, target string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeView := func(w *httptest.ResponseRecorder) employee.View {
		Expect(w.Code).To(Equal(http.StatusOK))
		var v employee.View
		Expect(json.NewDecoder(w.Body).Decode(&v)).To(Succeed())
		return v
	}

	BeforeEach(func() {
		stateDB = openStateDB()
		sess = &auth.Session{ID: "s-1", User: auth.SessionUser{ID: "u-1", Access: "HR Admin"}, UpstreamToken: "tok"}

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc := employee.NewService(&fakeRepository{users: sampleUsers()}, nil, employee.Config{}, lg)
		states := session.NewProvider(sessionPostgres.NewStateRepository(stateDB))
		h := employee.NewHandler(svc, states)

		router = chi.NewRouter()
		router.Use(withSession)
		router.Get("/employees", h.ListEmployees)
		router.Post("/employees/view/sort", h.ToggleSort)
		router.Post("/employees/view/columns", h.UpdateColumns)
		router.Delete("/employees/view", h.ResetView)
		router.Get("/employees/{id}", h.GetEmployee)
		router.Post("/employees", h.CreateEmployee)
	})

	AfterEach(func() {
		Expect(stateDB.Close()).To(Succeed())
	})

	It("remembers filters between requests", func() {
		v := decodeView(do(http.MethodGet, "/employees?department=Sales", nil))
		Expect(v.TotalRows).To(Equal(3))

		v = decodeView(do(http.MethodGet, "/employees", nil))
		Expect(v.Filters.Department).To(Equal("Sales"))
		Expect(v.TotalRows).To(Equal(3))
	})

	It("toggles sort direction on repeated picks", func() {
		v := decodeView(do(http.MethodPost, "/employees/view/sort", map[string]string{"field": "name"}))
		Expect(v.Sort.Direction).To(Equal(employee.Descending))
		Expect(v.Rows[0].Name).To(Equal("Eko"))

		v = decodeView(do(http.MethodPost, "/employees/view/sort", map[string]string{"field": "name"}))
		Expect(v.Sort.Direction).To(Equal(employee.Ascending))
	})

	It("applies column presets and resets the view", func() {
		v := decodeView(do(http.MethodPost, "/employees/view/columns", map[string]string{"preset": "travel"}))
		Expect(v.Colspan).To(Equal(5))

		v = decodeView(do(http.MethodDelete, "/employees/view", nil))
		Expect(v.Colspan).To(Equal(len(employee.DefaultColumns().Visible())))
	})

	It("rejects an unknown column", func() {
		w := do(http.MethodPost, "/employees/view/columns", map[string]string{"column": "salary"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for unknown employees", func() {
		w := do(http.MethodGet, "/employees/ghost", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns the generated initial password once on create", func() {
		u := validNewEmployee()
		u.Password = ""
		w := do(http.MethodPost, "/employees", u)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var body struct {
			User            map[string]interface{} `json:"user"`
			InitialPassword string                 `json:"initialPassword"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.InitialPassword).To(HaveLen(12))
		Expect(body.User).NotTo(HaveKey("password"))
	})

	It("answers 400 with field errors for an invalid new employee", func() {
		w := do(http.MethodPost, "/employees", employee.User{Name: "Only a name"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var body struct {
			Error struct {
				Details struct {
					Errors []struct {
						Field string `json:"field"`
					} `json:"errors"`
				} `json:"details"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Error.Details.Errors).NotTo(BeEmpty())
	})

	It("keeps users' views apart", func() {
		decodeView(do(http.MethodGet, "/employees?branch=Bandung", nil))

		sess = &auth.Session{ID: "s-2", User: auth.SessionUser{ID: "u-2", Access: "Marketing"}, UpstreamToken: "tok"}
		v := decodeView(do(http.MethodGet, "/employees", nil))
		Expect(v.Filters.Branch).To(BeEmpty())
	})
})
