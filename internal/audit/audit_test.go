package audit_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"testing"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/audit"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAudit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Suite")
}

type fakeRepository struct {
	lastEntity string
	lastQuery  audit.Query
	page       *audit.Page
}

func (f *fakeRepository) EntityLogs(ctx context.Context, token, entityType, entityID string, q audit.Query) (*audit.Page, error) {
	f.lastEntity = entityType + "/" + entityID
	f.lastQuery = q
	return f.page, nil
}

func (f *fakeRepository) Search(ctx context.Context, token string, q audit.Query) (*audit.Page, error) {
	f.lastQuery = q
	return f.page, nil
}

func (f *fakeRepository) Recent(ctx context.Context, token string, limit int) ([]audit.Log, error) {
	return nil, nil
}

func (f *fakeRepository) Summary(ctx context.Context, token string) (json.RawMessage, error) {
	return json.RawMessage(`{"total":1}`), nil
}

func fields(err error) map[string]string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue())
	return appErr.Details.(internal.ValidationErrors).FieldMap()
}

var _ = Describe("Query", func() {
	It("parses both parameter spellings and upper-cases enums", func() {
		q, err := audit.ParseQuery(url.Values{
			"entityType": {"user"},
			"entity_id":  {"u-1"},
			"actions":    {"create, update"},
			"status":     {"success"},
			"limit":      {"25"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(q.EntityType).To(Equal("user"))
		Expect(q.EntityID).To(Equal("u-1"))
		Expect(q.Actions).To(Equal([]audit.Action{audit.ActionCreate, audit.ActionUpdate}))
		Expect(q.Status).To(Equal(audit.StatusSuccess))
		Expect(q.Limit).To(Equal(25))
		Expect(q.Validate()).To(BeNil())
	})

	It("rejects non-numeric paging", func() {
		_, err := audit.ParseQuery(url.Values{"skip": {"ten"}})
		Expect(fields(err)).To(HaveKey("skip"))
	})

	It("validates enums, bounds and date order", func() {
		q := audit.Query{
			Action:    "ARCHIVE",
			Status:    "MAYBE",
			Limit:     500,
			StartDate: "2024-05-02",
			EndDate:   "2024-05-01",
		}
		Expect(fields(q.Validate())).To(Equal(map[string]string{
			"action":  "action must be one of CREATE, UPDATE, DELETE",
			"status":  "status must be SUCCESS or FAILED",
			"limit":   "limit must be between 0 and 100",
			"endDate": "endDate must not be before startDate",
		}))
	})

	It("builds the search query string", func() {
		q := audit.Query{EntityType: "user", UserID: "u-9", Action: audit.ActionDelete, Skip: 10}
		Expect(q.SearchValues().Encode()).To(Equal("action=DELETE&entity_type=user&skip=10&user_id=u-9"))
	})
})

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		repo    *fakeRepository
		service *audit.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = &fakeRepository{page: &audit.Page{AuditLogs: []audit.Log{{ID: "a1"}}, TotalCount: 1}}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = audit.NewService(repo, lg)
	})

	It("requires the entity type and id", func() {
		_, err := service.EntityHistory(ctx, "tok", "", "u-1", audit.Query{})
		Expect(err).To(HaveOccurred())
	})

	It("never hands out nil change lists", func() {
		page, err := service.EntityHistory(ctx, "tok", "user", "u-1", audit.Query{})
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.lastEntity).To(Equal("user/u-1"))
		Expect(page.AuditLogs[0].Changes).NotTo(BeNil())
	})

	It("validates before searching", func() {
		_, err := service.Search(ctx, "tok", audit.Query{Skip: -1})
		Expect(fields(err)).To(HaveKey("skip"))
	})

	It("returns an empty recent list rather than nil", func() {
		logs, err := service.Recent(ctx, "tok", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(logs).NotTo(BeNil())

		_, err = service.Recent(ctx, "tok", 101)
		Expect(err).To(HaveOccurred())
	})

	It("passes the summary through", func() {
		summary, err := service.Summary(ctx, "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(summary)).To(MatchJSON(`{"total":1}`))
	})
})
