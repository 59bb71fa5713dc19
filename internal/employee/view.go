package employee

import (
	"fmt"
	"sort"
	"strings"
)

const NoEmployeesMessage = "No Employees Found"

// ViewState is everything the directory screen remembers between requests.
type ViewState struct {
	Filters Filters          `json:"filters"`
	Sort    SortConfig       `json:"sort"`
	Page    int              `json:"page"`
	Columns ColumnVisibility `json:"columns"`
}

func NewViewState() ViewState {
	return ViewState{
		Sort:    DefaultSort(),
		Page:    1,
		Columns: DefaultColumns(),
	}
}

// Normalize repairs a state decoded from storage or a query string.
func (s ViewState) Normalize() ViewState {
	if s.Page < 1 {
		s.Page = 1
	}
	if !s.Sort.Field.Valid() {
		s.Sort = DefaultSort()
	}
	if s.Sort.Direction != Descending {
		s.Sort.Direction = Ascending
	}
	if len(s.Columns) == 0 {
		s.Columns = DefaultColumns()
	} else {
		s.Columns = s.Columns.normalized()
	}
	return s
}

func (s ViewState) WithSearch(q string) ViewState {
	s.Filters.Search = q
	s.Page = 1
	return s
}

func (s ViewState) WithFilter(key, value string) (ViewState, error) {
	switch key {
	case "department":
		s.Filters.Department = value
	case "branch":
		s.Filters.Branch = value
	case "access":
		s.Filters.Access = value
	case "search":
		s.Filters.Search = value
	default:
		return s, fmt.Errorf("unknown filter %q", key)
	}
	s.Page = 1
	return s, nil
}

func (s ViewState) ClearFilters() ViewState {
	s.Filters = Filters{}
	s.Page = 1
	return s
}

func (s ViewState) WithSort(field SortField) (ViewState, error) {
	if !field.Valid() {
		return s, fmt.Errorf("column %q is not sortable", field)
	}
	s.Sort = s.Sort.Toggle(field)
	return s, nil
}

func (s ViewState) WithPage(page int) ViewState {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

func (s ViewState) WithPreset(p Preset) (ViewState, error) {
	cols, ok := PresetColumns(p)
	if !ok {
		return s, fmt.Errorf("unknown column preset %q", p)
	}
	s.Columns = cols
	return s, nil
}

func (s ViewState) WithColumnToggled(c Column) ViewState {
	s.Columns = s.Columns.Toggle(c)
	return s
}

type View struct {
	Page
	Filters      Filters     `json:"filters"`
	Sort         SortConfig  `json:"sort"`
	Columns      []ColumnDef `json:"columns"`
	EmptyMessage string      `json:"empty_message,omitempty"`
	Colspan      int         `json:"colspan"`
}

// Apply runs filter, sort, paginate and column selection over the full user list.
func Apply(users []User, s ViewState, pageSize int) View {
	s = s.Normalize()
	rows := Sort(Filter(users, s.Filters), s.Sort)

	v := View{
		Page:    Paginate(rows, s.Page, pageSize),
		Filters: s.Filters,
		Sort:    s.Sort,
		Columns: s.Columns.Visible(),
	}
	v.Colspan = len(v.Columns)
	if len(rows) == 0 {
		v.EmptyMessage = NoEmployeesMessage
	}
	for i := range v.Rows {
		v.Rows[i] = v.Rows[i].Sanitized()
	}
	return v
}

// Rows runs filter and sort without paging, for exports.
func Rows(users []User, s ViewState) []User {
	s = s.Normalize()
	return Sort(Filter(users, s.Filters), s.Sort)
}

type FilterOptions struct {
	Departments []string `json:"departments"`
	Branches    []string `json:"branches"`
	Access      []string `json:"access"`
}

func BuildFilterOptions(users []User) FilterOptions {
	return FilterOptions{
		Departments: UniqueValues(users, func(u User) string { return u.Department }),
		Branches:    UniqueValues(users, func(u User) string { return u.Branch }),
		Access:      AccessGroups(users),
	}
}

// UniqueValues returns the distinct non-empty values of a field, sorted.
func UniqueValues(users []User, field func(User) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, u := range users {
		v := field(u)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// AccessGroups collapses every "Product Admin..." and "Zone Manager..." string into its family.
func AccessGroups(users []User) []string {
	return UniqueValues(users, func(u User) string {
		switch {
		case strings.HasPrefix(u.Access, AccessGroupProductAdmin):
			return AccessGroupProductAdmin
		case strings.HasPrefix(u.Access, AccessGroupZoneManager):
			return AccessGroupZoneManager
		default:
			return u.Access
		}
	})
}

// Candidates lists users whose access contains the token, for team pickers.
func Candidates(users []User, token string) []User {
	out := []User{}
	for _, u := range users {
		if strings.Contains(u.Access, token) {
			out = append(out, u.Sanitized())
		}
	}
	return out
}
