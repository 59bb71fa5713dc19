package employee

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/employee-console/internal"
)

// ApplyQuery overlays directory query parameters on a view state. Any filter parameter
// resets the page to 1 unless page is given too.
func ApplyQuery(s ViewState, q url.Values) (ViewState, error) {
	s = s.Normalize()

	filtersChanged := false
	for _, key := range []string{"search", "department", "branch", "access"} {
		if _, ok := q[key]; !ok {
			continue
		}
		next, err := s.WithFilter(key, strings.TrimSpace(q.Get(key)))
		if err != nil {
			return s, internal.NewValidationFieldError(key, err.Error(), internal.ErrCodeInvalidQuery)
		}
		s = next
		filtersChanged = true
	}
	if q.Get("clear") == "true" {
		s = s.ClearFilters()
		filtersChanged = true
	}

	if raw := q.Get("sort"); raw != "" {
		field := SortField(raw)
		if !field.Valid() {
			return s, internal.NewValidationFieldError("sort", "column \""+raw+"\" is not sortable", internal.ErrCodeInvalidQuery)
		}
		s.Sort = SortConfig{Field: field, Direction: Ascending}
	}
	if raw := q.Get("direction"); raw != "" {
		switch SortDirection(strings.ToLower(raw)) {
		case Ascending:
			s.Sort.Direction = Ascending
		case Descending:
			s.Sort.Direction = Descending
		default:
			return s, internal.NewValidationFieldError("direction", "direction must be asc or desc", internal.ErrCodeInvalidQuery)
		}
	}

	if raw := q.Get("preset"); raw != "" {
		next, err := s.WithPreset(Preset(strings.ToLower(raw)))
		if err != nil {
			return s, internal.NewValidationFieldError("preset", err.Error(), internal.ErrCodeInvalidQuery)
		}
		s = next
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return s, internal.NewValidationFieldError("page", "page must be a positive number", internal.ErrCodeInvalidQuery)
		}
		s = s.WithPage(page)
	} else if filtersChanged {
		s = s.WithPage(1)
	}
	return s, nil
}
