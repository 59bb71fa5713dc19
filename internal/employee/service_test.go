package employee_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/employee"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

type fakeRepository struct {
	users     []employee.User
	listCalls int
	created   []employee.User
}

func (f *fakeRepository) List(ctx context.Context, token string) ([]employee.User, error) {
	f.listCalls++
	return f.users, nil
}

func (f *fakeRepository) Get(ctx context.Context, token, id string) (*employee.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) Create(ctx context.Context, token string, u employee.User) (*employee.User, string, error) {
	f.created = append(f.created, u)
	u.ID = "new"
	return &u, "User created successfully", nil
}

func (f *fakeRepository) Update(ctx context.Context, token, id string, u employee.User) (*employee.User, error) {
	return &u, nil
}

type fakeCache struct {
	mu            sync.Mutex
	lists         map[string][]employee.User
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{lists: map[string][]employee.User{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]employee.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	users, ok := c.lists[key]
	return users, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, users []employee.User, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = users
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists = map[string][]employee.User{}
	c.invalidations++
	return nil
}

func validNewEmployee() employee.User {
	return employee.User{
		Code: "EMP-99", Name: "Fajar", Branch: "Jakarta", Department: "Sales", Designation: "Engineer",
		Access: "Employee", Email: "fajar@example.com", CurrLocation: "Jakarta", Password: "Secret123",
	}
}

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		repo    *fakeRepository
		cache   *fakeCache
		service *employee.Service
	)

	BeforeEach(func() {
		ctx = internal.ContextWithUserID(context.Background(), "u-1")
		repo = &fakeRepository{users: sampleUsers()}
		cache = newFakeCache()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = employee.NewService(repo, cache, employee.Config{PageSize: 2}, lg)
	})

	It("serves repeated lists from the cache", func() {
		_, err := service.List(ctx, "tok")
		Expect(err).NotTo(HaveOccurred())
		_, err = service.List(ctx, "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.listCalls).To(Equal(1))
	})

	It("works without a cache", func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		uncached := employee.NewService(repo, nil, employee.Config{}, lg)
		users, err := uncached.List(ctx, "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(5))
		Expect(uncached.PageSize()).To(Equal(internal.DefaultPageSize))
	})

	It("pages the view with the configured size", func() {
		v, err := service.View(ctx, "tok", employee.NewViewState().WithPage(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Rows).To(HaveLen(1))
		Expect(v.TotalPages).To(Equal(3))
	})

	Describe("Create", func() {
		It("reports every missing field and never calls upstream", func() {
			_, err := service.Create(ctx, "tok", employee.User{Email: "bad", AlternateEmail: "bad"})
			Expect(err).To(HaveOccurred())
			Expect(repo.created).To(BeEmpty())
			Expect(employee.CreateErrors(employee.User{Email: "bad", AlternateEmail: "bad"})).To(Equal(map[string]string{
				"code":           "Code is required",
				"name":           "Name is required",
				"branch":         "Branch is required",
				"department":     "Department is required",
				"designation":    "Designation is required",
				"access":         "Access is required",
				"email":          "Invalid email format",
				"curr_location":  "Current location is required",
				"alternateEmail": "Alternate email cannot be the same as primary email",
			}))
		})

		It("rejects a half-filled passport", func() {
			u := validNewEmployee()
			u.Passport = &employee.Passport{PassportNumber: "P1"}
			Expect(employee.CreateErrors(u)).To(Equal(map[string]string{
				"passport": "If any passport field is filled, all passport fields must be filled",
			}))
		})

		It("generates an initial password when none is given", func() {
			u := validNewEmployee()
			u.Password = ""
			res, err := service.Create(ctx, "tok", u)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.InitialPassword).To(HaveLen(12))
			Expect(res.InitialPassword).To(MatchRegexp(`^[A-Za-z0-9!@#$%^&*()]+$`))
			Expect(repo.created).To(HaveLen(1))
			Expect(repo.created[0].Password).To(Equal(res.InitialPassword))
			Expect(res.User.Password).To(BeEmpty())

			again, err := service.Create(ctx, "tok", u)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.InitialPassword).NotTo(Equal(res.InitialPassword))
		})

		It("keeps a password the admin chose and does not echo it", func() {
			u := validNewEmployee()
			u.Password = "Chosen123"
			res, err := service.Create(ctx, "tok", u)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.created[0].Password).To(Equal("Chosen123"))
			Expect(res.InitialPassword).To(BeEmpty())
		})

		It("creates, hides the password and drops cached lists", func() {
			_, err := service.List(ctx, "tok")
			Expect(err).NotTo(HaveOccurred())

			res, err := service.Create(ctx, "tok", validNewEmployee())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Message).To(Equal("User created successfully"))
			Expect(res.User.Password).To(BeEmpty())
			Expect(cache.invalidations).To(Equal(1))

			_, err = service.List(ctx, "tok")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.listCalls).To(Equal(2))
		})
	})

	It("reports an unknown employee as not found", func() {
		_, err := service.Get(ctx, "tok", "ghost")
		Expect(err).To(MatchError(internal.ErrUserNotFound))
	})

	It("requires an access token for candidates", func() {
		_, err := service.Candidates(ctx, "tok", " ")
		Expect(err).To(HaveOccurred())

		users, err := service.Candidates(ctx, "tok", "Manager")
		Expect(err).NotTo(HaveOccurred())
		Expect(names(users)).To(Equal([]string{"Budi"}))
	})

	It("exports every filtered row, not just one page", func() {
		var buf bytes.Buffer
		state, err := employee.NewViewState().WithFilter("department", "Sales")
		Expect(err).NotTo(HaveOccurred())
		Expect(service.Export(ctx, "tok", state, &buf)).To(Succeed())

		f, err := excelize.OpenReader(&buf)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows("Employees")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(4))
	})
})
