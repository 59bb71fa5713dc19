package employee_test

import (
	"bytes"
	"fmt"
	"net/url"
	"testing"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/employee"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

func TestEmployee(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Employee Suite")
}

func names(users []employee.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

func sampleUsers() []employee.User {
	return []employee.User{
		{ID: "1", Code: "EMP-10", Name: "Citra", Department: "Sales", Branch: "Jakarta", Access: "Marketing Incharge"},
		{ID: "2", Code: "EMP-2", Name: "ana", Department: "Engineering", Branch: "Bandung", Access: "Product Admin - p1,p2"},
		{ID: "3", Code: "EMP-1", Name: "Budi", Department: "Sales", Branch: "Bandung", Access: "Zone Manager - East"},
		{ID: "4", Code: "", Name: "Dewi", Department: "Sales", Branch: "Jakarta", Access: ""},
		{ID: "5", Code: "EMP-3", Name: "Eko", Department: "Engineering", Branch: "Jakarta", Access: "Admin"},
	}
}

var _ = Describe("Filter", func() {
	users := sampleUsers()

	It("returns everything for empty filters", func() {
		Expect(employee.Filter(users, employee.Filters{})).To(Equal(users))
	})

	It("ANDs every criterion and keeps input order", func() {
		got := employee.Filter(users, employee.Filters{Department: "Sales", Branch: "Jakarta"})
		Expect(names(got)).To(Equal([]string{"Citra", "Dewi"}))
	})

	It("searches names case-insensitively", func() {
		Expect(names(employee.Filter(users, employee.Filters{Search: "AN"}))).To(Equal([]string{"ana"}))
	})

	It("returns a subset of the input", func() {
		for _, f := range []employee.Filters{
			{Department: "Sales"},
			{Branch: "Bandung", Search: "b"},
			{Access: "Admin"},
		} {
			got := employee.Filter(users, f)
			Expect(len(got)).To(BeNumerically("<=", len(users)))
			for _, u := range got {
				Expect(users).To(ContainElement(u))
				Expect(f.Match(u)).To(BeTrue())
			}
		}
	})

	DescribeTable("access matching",
		func(filter string, expected []string) {
			Expect(names(employee.Filter(users, employee.Filters{Access: filter}))).To(Equal(expected))
		},
		Entry("product admin family by prefix", "Product Admin", []string{"ana"}),
		Entry("zone manager family by prefix", "Zone Manager", []string{"Budi"}),
		Entry("anything else by equality", "Admin", []string{"Eko"}),
		Entry("no partial match outside the families", "Marketing", []string{}),
	)
})

var _ = Describe("Sort", func() {
	users := sampleUsers()

	It("sorts codes numerically with empty codes last", func() {
		got := employee.Sort(users, employee.SortConfig{Field: employee.SortByCode, Direction: employee.Ascending})
		codes := make([]string, len(got))
		for i, u := range got {
			codes[i] = u.Code
		}
		Expect(codes).To(Equal([]string{"EMP-1", "EMP-2", "EMP-3", "EMP-10", ""}))
	})

	It("keeps empty values last when descending", func() {
		got := employee.Sort(users, employee.SortConfig{Field: employee.SortByCode, Direction: employee.Descending})
		Expect(got[len(got)-1].Code).To(BeEmpty())
		Expect(got[0].Code).To(Equal("EMP-10"))
	})

	It("reverses for distinct values when the direction flips", func() {
		asc := employee.Sort(users, employee.SortConfig{Field: employee.SortByName, Direction: employee.Ascending})
		desc := employee.Sort(users, employee.SortConfig{Field: employee.SortByName, Direction: employee.Descending})
		reversed := make([]string, len(asc))
		for i, u := range asc {
			reversed[len(asc)-1-i] = u.Name
		}
		Expect(names(desc)).To(Equal(reversed))
		Expect(names(asc)).To(Equal([]string{"ana", "Budi", "Citra", "Dewi", "Eko"}))
	})

	It("is stable for equal values", func() {
		got := employee.Sort(users, employee.SortConfig{Field: employee.SortByDepartment, Direction: employee.Ascending})
		Expect(names(got)).To(Equal([]string{"ana", "Eko", "Citra", "Budi", "Dewi"}))
	})

	It("does not modify its input", func() {
		before := names(users)
		employee.Sort(users, employee.SortConfig{Field: employee.SortByName, Direction: employee.Descending})
		Expect(names(users)).To(Equal(before))
	})

	It("toggles direction only for the same field", func() {
		s := employee.DefaultSort()
		s = s.Toggle(employee.SortByName)
		Expect(s.Direction).To(Equal(employee.Descending))
		s = s.Toggle(employee.SortByName)
		Expect(s.Direction).To(Equal(employee.Ascending))
		s = s.Toggle(employee.SortByName).Toggle(employee.SortByCode)
		Expect(s).To(Equal(employee.SortConfig{Field: employee.SortByCode, Direction: employee.Ascending}))
	})

	DescribeTable("CodeNumber",
		func(code string, expected float64) {
			Expect(employee.CodeNumber(code)).To(Equal(expected))
		},
		Entry("prefixed", "EMP-10", 10.0),
		Entry("plain", "42", 42.0),
		Entry("decimal", "V1.5", 1.5),
		Entry("no digits", "ABC", 0.0),
		Entry("negative", "-3", -3.0),
	)
})

var _ = Describe("Paginate", func() {
	many := make([]employee.User, 23)
	for i := range many {
		many[i] = employee.User{ID: fmt.Sprint(i), Name: fmt.Sprintf("User %02d", i)}
	}

	It("returns the remainder on the last page", func() {
		p := employee.Paginate(many, 3, 10)
		Expect(p.Rows).To(HaveLen(3))
		Expect(p.TotalPages).To(Equal(3))
		Expect(p.TotalRows).To(Equal(23))
	})

	It("returns no rows past the end but the real page count", func() {
		p := employee.Paginate(many, 4, 10)
		Expect(p.Rows).To(BeEmpty())
		Expect(p.TotalPages).To(Equal(3))
	})

	It("has zero pages for no rows", func() {
		p := employee.Paginate(nil, 1, 10)
		Expect(p.Rows).NotTo(BeNil())
		Expect(p.TotalPages).To(BeZero())
	})
})

var _ = Describe("Apply", func() {
	It("shows the empty message across every visible column", func() {
		state := employee.NewViewState().WithSearch("nobody")
		v := employee.Apply(sampleUsers(), state, 10)
		Expect(v.Rows).To(BeEmpty())
		Expect(v.EmptyMessage).To(Equal(employee.NoEmployeesMessage))
		Expect(v.Colspan).To(Equal(len(employee.DefaultColumns().Visible())))
	})

	It("never returns passwords", func() {
		users := []employee.User{{ID: "1", Name: "A", Password: "secret"}}
		v := employee.Apply(users, employee.NewViewState(), 10)
		Expect(v.Rows[0].Password).To(BeEmpty())
	})

	It("leaves column visibility alone when filters change", func() {
		state, err := employee.NewViewState().WithPreset(employee.PresetTravel)
		Expect(err).NotTo(HaveOccurred())
		state, err = state.WithFilter("department", "Sales")
		Expect(err).NotTo(HaveOccurred())
		v := employee.Apply(sampleUsers(), state, 10)
		Expect(v.Colspan).To(Equal(5))
	})
})

var _ = Describe("ApplyQuery", func() {
	It("resets the page when a filter changes", func() {
		state := employee.NewViewState().WithPage(3)
		next, err := employee.ApplyQuery(state, url.Values{"department": {"Sales"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Page).To(Equal(1))
		Expect(next.Filters.Department).To(Equal("Sales"))
	})

	It("keeps an explicit page", func() {
		next, err := employee.ApplyQuery(employee.NewViewState(), url.Values{"search": {"a"}, "page": {"2"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Page).To(Equal(2))
	})

	It("rejects unsortable columns", func() {
		_, err := employee.ApplyQuery(employee.NewViewState(), url.Values{"sort": {"passport"}})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Details.(internal.ValidationErrors).FieldMap()).To(HaveKey("sort"))
	})

	It("sets the sort field and direction", func() {
		next, err := employee.ApplyQuery(employee.NewViewState(), url.Values{"sort": {"code"}, "direction": {"DESC"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Sort).To(Equal(employee.SortConfig{Field: employee.SortByCode, Direction: employee.Descending}))
	})
})

var _ = Describe("Columns", func() {
	It("toggles one column independently", func() {
		cols := employee.DefaultColumns()
		Expect(cols[employee.ColEmail]).To(BeFalse())
		toggled := cols.Toggle(employee.ColEmail)
		Expect(toggled[employee.ColEmail]).To(BeTrue())
		Expect(cols[employee.ColEmail]).To(BeFalse())
		Expect(toggled).To(HaveLen(len(employee.Columns)))
	})

	It("rejects unknown presets", func() {
		_, ok := employee.PresetColumns("holiday")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Filter options", func() {
	It("collapses access families and drops empty values", func() {
		opts := employee.BuildFilterOptions(sampleUsers())
		Expect(opts.Access).To(Equal([]string{"Admin", "Marketing Incharge", "Product Admin", "Zone Manager"}))
		Expect(opts.Departments).To(Equal([]string{"Engineering", "Sales"}))
	})

	It("finds team candidates by access substring", func() {
		Expect(names(employee.Candidates(sampleUsers(), "Incharge"))).To(Equal([]string{"Citra"}))
	})
})

var _ = Describe("WriteXLSX", func() {
	It("writes a header and one row per employee", func() {
		cols := []employee.ColumnDef{}
		for _, id := range []employee.Column{employee.ColName, employee.ColCode, employee.ColGrade} {
			c, _ := employee.ColumnByID(id)
			cols = append(cols, c)
		}

		var buf bytes.Buffer
		Expect(employee.WriteXLSX(&buf, sampleUsers()[:2], cols)).To(Succeed())

		f, err := excelize.OpenReader(&buf)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		rows, err := f.GetRows("Employees")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0]).To(Equal([]string{"Name", "Code", "Grade"}))
		Expect(rows[1]).To(Equal([]string{"Citra", "EMP-10", "N/A"}))
	})
})
