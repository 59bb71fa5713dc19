package employee

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Access filter values that match a whole family of access strings by prefix.
const (
	AccessGroupProductAdmin = "Product Admin"
	AccessGroupZoneManager  = "Zone Manager"
)

type Filters struct {
	Search     string `json:"search"`
	Department string `json:"department"`
	Branch     string `json:"branch"`
	Access     string `json:"access"`
}

func (f Filters) IsEmpty() bool {
	return f.Search == "" && f.Department == "" && f.Branch == "" && f.Access == ""
}

func (f Filters) Match(u User) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.Department != "" && u.Department != f.Department {
		return false
	}
	if f.Branch != "" && u.Branch != f.Branch {
		return false
	}
	if f.Access != "" && !matchAccess(u.Access, f.Access) {
		return false
	}
	return true
}

func matchAccess(userAccess, filter string) bool {
	if userAccess == "" {
		return false
	}
	switch filter {
	case AccessGroupProductAdmin, AccessGroupZoneManager:
		return strings.HasPrefix(userAccess, filter)
	default:
		return userAccess == filter
	}
}

// Filter keeps the users matching every non-empty criterion, in input order.
func Filter(users []User, f Filters) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if f.Match(u) {
			out = append(out, u)
		}
	}
	return out
}

type SortField string

const (
	SortByName           SortField = "name"
	SortByGrade          SortField = "grade"
	SortByEmail          SortField = "email"
	SortByAlternateEmail SortField = "alternateEmail"
	SortByCode           SortField = "code"
	SortByAccess         SortField = "access"
	SortByBranch         SortField = "branch"
	SortByDepartment     SortField = "department"
	SortByDesignation    SortField = "designation"
	SortByCurrLocation   SortField = "curr_location"
)

var SortableFields = []SortField{
	SortByName,
	SortByGrade,
	SortByEmail,
	SortByAlternateEmail,
	SortByCode,
	SortByAccess,
	SortByBranch,
	SortByDepartment,
	SortByDesignation,
	SortByCurrLocation,
}

func (f SortField) Valid() bool {
	for _, s := range SortableFields {
		if s == f {
			return true
		}
	}
	return false
}

func (f SortField) value(u User) string {
	switch f {
	case SortByName:
		return u.Name
	case SortByGrade:
		return u.Grade
	case SortByEmail:
		return u.Email
	case SortByAlternateEmail:
		return u.AlternateEmail
	case SortByCode:
		return u.Code
	case SortByAccess:
		return u.Access
	case SortByBranch:
		return u.Branch
	case SortByDepartment:
		return u.Department
	case SortByDesignation:
		return u.Designation
	case SortByCurrLocation:
		return u.CurrLocation
	}
	return ""
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

type SortConfig struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

func DefaultSort() SortConfig {
	return SortConfig{Field: SortByName, Direction: Ascending}
}

// Toggle flips direction when the same field is picked again while ascending; any other pick sorts ascending.
func (s SortConfig) Toggle(field SortField) SortConfig {
	if s.Field == field && s.Direction == Ascending {
		return SortConfig{Field: field, Direction: Descending}
	}
	return SortConfig{Field: field, Direction: Ascending}
}

// Sort returns a sorted copy. Empty values stay at the end in both directions and ties keep input order.
func Sort(users []User, cfg SortConfig) []User {
	out := make([]User, len(users))
	copy(out, users)
	if cfg.Field == "" {
		return out
	}

	cmp := newComparator(cfg)
	sort.SliceStable(out, func(i, j int) bool {
		return cmp.compare(out[i], out[j]) < 0
	})
	return out
}

type comparator struct {
	cfg      SortConfig
	collator *collate.Collator
}

func newComparator(cfg SortConfig) *comparator {
	return &comparator{cfg: cfg, collator: collate.New(language.English)}
}

func (c *comparator) compare(a, b User) int {
	av, bv := c.cfg.Field.value(a), c.cfg.Field.value(b)

	if av == bv {
		return 0
	}
	if av == "" {
		return 1
	}
	if bv == "" {
		return -1
	}

	var result int
	if c.cfg.Field == SortByCode {
		an, bn := CodeNumber(av), CodeNumber(bv)
		switch {
		case an < bn:
			result = -1
		case an > bn:
			result = 1
		}
	} else {
		result = c.collator.CompareString(av, bv)
	}

	if c.cfg.Direction == Descending {
		return -result
	}
	return result
}

// CodeNumber extracts the numeric part of an employee code ("EMP-10" is 10).
// A minus sign counts only when it leads the code or follows a non-alphanumeric
// character, so prefixes like "EMP-" do not turn codes negative. Codes without digits are 0.
func CodeNumber(code string) float64 {
	var b strings.Builder
	for i, r := range code {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0 && (i == 0 || !isAlnum(rune(code[i-1]))):
			b.WriteRune(r)
		}
	}
	return leadingFloat(b.String())
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// leadingFloat parses the longest numeric prefix, so "1.2.3" is 1.2.
func leadingFloat(s string) float64 {
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
	}
	return 0
}

type Page struct {
	Rows       []User `json:"rows"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalRows  int    `json:"total_rows"`
	TotalPages int    `json:"total_pages"`
}

// Paginate slices a 1-based page. Pages past the end come back empty with the real page count.
func Paginate(users []User, page, size int) Page {
	if size <= 0 {
		size = 10
	}
	if page < 1 {
		page = 1
	}

	total := len(users)
	p := Page{
		Rows:       []User{},
		Page:       page,
		PageSize:   size,
		TotalRows:  total,
		TotalPages: (total + size - 1) / size,
	}

	start := (page - 1) * size
	if start >= total {
		return p
	}
	end := start + size
	if end > total {
		end = total
	}
	p.Rows = users[start:end]
	return p
}
