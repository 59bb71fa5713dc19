package upstream_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/audit"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/profile"
	"github.com/frahmantamala/employee-console/internal/upstream"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUpstream(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Upstream Suite")
}

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

func newBackend(routes map[string]func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		calls = append(calls, rec)

		handler, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no such route"}`))
			return
		}
		handler(w, r)
	}))
	return srv, &calls
}

func reply(status int, body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func statusOf(err error) (int, string) {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue())
	return appErr.StatusCode, appErr.Message
}

var _ = Describe("Upstream client", func() {
	var (
		ctx    context.Context
		srv    *httptest.Server
		calls  *[]recorded
		client *upstream.Client
		routes map[string]func(http.ResponseWriter, *http.Request)
	)

	BeforeEach(func() {
		ctx = context.Background()
		routes = map[string]func(http.ResponseWriter, *http.Request){}
	})

	JustBeforeEach(func() {
		srv, calls = newBackend(routes)
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client = upstream.NewClient(upstream.Config{BaseURL: srv.URL + "/"}, lg)
	})

	AfterEach(func() {
		srv.Close()
	})

	Describe("Authenticator", func() {
		BeforeEach(func() {
			routes["POST /users/authenticate"] = reply(200,
				`{"user":{"id":"u-1","name":"Ana","email":"ana@example.com","access":"HR Admin","token":"up-token"},"message":"Welcome"}`)
		})

		It("returns the token and user", func() {
			login, err := upstream.NewAuthenticator(client).Authenticate(ctx, "ana@example.com", "pw")
			Expect(err).NotTo(HaveOccurred())
			Expect(login.Token).To(Equal("up-token"))
			Expect(login.User.ID).To(Equal("u-1"))
			Expect(login.User.Access).To(Equal("HR Admin"))
			Expect(login.Message).To(Equal("Welcome"))
			Expect((*calls)[0].body).To(Equal(map[string]interface{}{"email": "ana@example.com", "password": "pw"}))
			Expect((*calls)[0].auth).To(BeEmpty())
		})

		Context("when the backend rejects the credentials", func() {
			BeforeEach(func() {
				routes["POST /users/authenticate"] = reply(401, `{"message":"Invalid password"}`)
			})

			It("carries the status and message through", func() {
				_, err := upstream.NewAuthenticator(client).Authenticate(ctx, "ana@example.com", "bad")
				status, msg := statusOf(err)
				Expect(status).To(Equal(401))
				Expect(msg).To(Equal("Invalid password"))
			})
		})
	})

	Describe("EmployeeRepository", func() {
		BeforeEach(func() {
			routes["GET /users/"] = reply(200, `{"users":[{"id":"1","name":"Ana"},{"id":"2","name":"Budi"}]}`)
			routes["POST /users/create"] = reply(500, `{}`)
			routes["PUT /users/update/7"] = reply(200, `{"user":{"id":"7","name":"Citra"}}`)
		})

		It("lists users with the bearer token", func() {
			users, err := upstream.NewEmployeeRepository(client).List(ctx, "tok")
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect((*calls)[0].auth).To(Equal("Bearer tok"))
		})

		It("falls back to the per-call message when the backend says nothing", func() {
			_, _, err := upstream.NewEmployeeRepository(client).Create(ctx, "tok", employee.User{Name: "X"})
			status, msg := statusOf(err)
			Expect(status).To(Equal(500))
			Expect(msg).To(Equal("Failed to create user"))
		})

		It("updates by id", func() {
			u, err := upstream.NewEmployeeRepository(client).Update(ctx, "tok", "7", employee.User{Name: "Citra"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Citra"))
			Expect((*calls)[0].body).To(HaveKeyWithValue("name", "Citra"))
		})

		It("maps a missing user to the not found message", func() {
			_, err := upstream.NewEmployeeRepository(client).Get(ctx, "tok", "ghost")
			status, msg := statusOf(err)
			Expect(status).To(Equal(404))
			Expect(msg).To(Equal("User Not Found!"))
		})
	})

	Describe("ProfileRepository", func() {
		BeforeEach(func() {
			routes["GET /users/u-1/profile"] = reply(200, `{"user":{"id":"u-1","name":"Ana","totalIdleDays":3,"travelDays":2},"message":"ok"}`)
			routes["GET /users/u-1/idle-days"] = reply(200, `{"totalIdleDays":12}`)
			routes["GET /users/u-1/passport-visa"] = reply(200, `{"passportVisa":{"passport":{"passportNumber":"P1"},"visa":[]}}`)
			routes["PUT /users/u-1/update-password"] = reply(400, `{"message":"Old password is incorrect"}`)
			routes["POST /users/verify-reset-token"] = reply(200, `{"valid":true}`)
			routes["PUT /users/u-1/profile"] = reply(200, `{"message":"Profile updated"}`)
		})

		It("sends an emptied visa list so the last visa is removed", func() {
			p := &employee.Passport{PassportNumber: "P1", PassportIssueDate: "2020-01-01", PassportExpiryDate: "2030-01-01"}
			msg, err := upstream.NewProfileRepository(client).UpdateProfile(ctx, "tok", "u-1",
				profile.UpdateDTO{Passport: p, Visa: &[]employee.Visa{}})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("Profile updated"))

			body := (*calls)[0].body
			Expect(body).To(HaveKey("visa"))
			Expect(body["visa"]).To(Equal([]interface{}{}))
		})

		It("leaves visas alone on a plain profile edit", func() {
			_, err := upstream.NewProfileRepository(client).UpdateProfile(ctx, "tok", "u-1", profile.UpdateDTO{Name: "Ana"})
			Expect(err).NotTo(HaveOccurred())
			Expect((*calls)[0].body).To(Equal(map[string]interface{}{"name": "Ana"}))
		})

		It("reads the complete profile", func() {
			d, err := upstream.NewProfileRepository(client).Profile(ctx, "tok", "u-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Name).To(Equal("Ana"))
			Expect(d.TotalIdleDays).To(Equal(3))
		})

		It("reads idle days and passport data", func() {
			repo := upstream.NewProfileRepository(client)
			days, err := repo.IdleDays(ctx, "tok", "u-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(days).To(Equal(12))

			pv, err := repo.PassportVisa(ctx, "tok", "u-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(pv.Passport.PassportNumber).To(Equal("P1"))
		})

		It("sends old and new passwords only", func() {
			_, err := upstream.NewProfileRepository(client).ChangePassword(ctx, "tok", "u-1", "Old1", "New1")
			_, msg := statusOf(err)
			Expect(msg).To(Equal("Old password is incorrect"))
			Expect((*calls)[0].body).To(Equal(map[string]interface{}{"oldPassword": "Old1", "newPassword": "New1"}))
		})

		It("uses the not found message for profile pictures of unknown users", func() {
			_, _, err := upstream.NewProfileRepository(client).UpdateProfilePicture(ctx, "tok", "ghost", "https://x")
			_, msg := statusOf(err)
			Expect(msg).To(Equal("User Not Found!"))
		})

		It("verifies reset tokens", func() {
			ok, err := upstream.NewProfileRepository(client).VerifyResetToken(ctx, "a@b.co", "t")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("satisfies the profile repository contract", func() {
			var _ profile.RepositoryAPI = upstream.NewProfileRepository(client)
		})
	})

	Describe("AuditRepository", func() {
		BeforeEach(func() {
			routes["GET /audit/entity/user/u-1"] = reply(200,
				`{"auditLogs":[{"id":"a1","action":"UPDATE","status":"SUCCESS","changes":[{"field":"name","oldValue":"A","newValue":"B"}]}],"totalCount":1,"page":1,"totalPages":1,"hasMore":false}`)
			routes["GET /audit/recent"] = reply(200, `[{"id":"a2"}]`)
			routes["GET /audit/summary"] = reply(200, `{"total":5}`)
		})

		It("passes entity filters as query parameters", func() {
			q := audit.Query{Actions: []audit.Action{audit.ActionCreate, audit.ActionUpdate}, Limit: 20, Skip: 40}
			page, err := upstream.NewAuditRepository(client).EntityLogs(ctx, "tok", "user", "u-1", q)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.TotalCount).To(Equal(1))
			Expect(page.AuditLogs[0].Changes[0].Field).To(Equal("name"))
			Expect((*calls)[0].query).To(Equal("actions=CREATE%2CUPDATE&limit=20&skip=40"))
		})

		It("reads the recent activity array and the raw summary", func() {
			repo := upstream.NewAuditRepository(client)
			logs, err := repo.Recent(ctx, "tok", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect((*calls)[0].query).To(Equal("limit=5"))

			summary, err := repo.Summary(ctx, "tok")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(summary)).To(MatchJSON(`{"total":5}`))
		})
	})

	Describe("transport failures", func() {
		It("reports an unreachable backend as 502 with the fallback", func() {
			srv.Close()
			_, err := upstream.NewProfileRepository(client).RequestPasswordReset(ctx, "a@b.co")
			status, msg := statusOf(err)
			Expect(status).To(Equal(http.StatusBadGateway))
			Expect(msg).To(Equal(upstream.GenericFailure))
		})
	})
})
