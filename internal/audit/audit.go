package audit

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/employee-console/internal"
)

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func (a Action) Valid() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}

type Change struct {
	Field    string          `json:"field"`
	OldValue json.RawMessage `json:"oldValue"`
	NewValue json.RawMessage `json:"newValue"`
}

type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Log is one immutable audit record. The console only reads them.
type Log struct {
	ID         string   `json:"id"`
	EntityType string   `json:"entity_type"`
	EntityID   string   `json:"entity_id"`
	User       Actor    `json:"user"`
	Action     Action   `json:"action"`
	Changes    []Change `json:"changes"`
	Timestamp  string   `json:"timestamp"`
	Status     Status   `json:"status"`
	Comment    string   `json:"comment,omitempty"`
}

type Page struct {
	AuditLogs  []Log `json:"auditLogs"`
	TotalCount int   `json:"totalCount"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

const MaxLimit = 100

// Query covers both the per-entity history and the global search.
// Actions applies to entity history, Action to the global search.
type Query struct {
	EntityType string   `json:"entity_type,omitempty"`
	EntityID   string   `json:"entity_id,omitempty"`
	UserID     string   `json:"user_id,omitempty"`
	Action     Action   `json:"action,omitempty"`
	Actions    []Action `json:"actions,omitempty"`
	StartDate  string   `json:"startDate,omitempty"`
	EndDate    string   `json:"endDate,omitempty"`
	Status     Status   `json:"status,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Skip       int      `json:"skip,omitempty"`
}

// ParseQuery reads the console's query string. Both naming styles of the backend are accepted.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		EntityType: first(v, "entity_type", "entityType"),
		EntityID:   first(v, "entity_id", "entityId"),
		UserID:     first(v, "user_id", "userId"),
		Action:     Action(strings.ToUpper(v.Get("action"))),
		StartDate:  first(v, "startDate", "start_date"),
		EndDate:    first(v, "endDate", "end_date"),
		Status:     Status(strings.ToUpper(v.Get("status"))),
	}
	if raw := v.Get("actions"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				q.Actions = append(q.Actions, Action(strings.ToUpper(a)))
			}
		}
	}

	var err error
	if q.Limit, err = intParam(v, "limit"); err != nil {
		return q, internal.NewValidationFieldError("limit", "limit must be a number", internal.ErrCodeInvalidQuery)
	}
	if q.Skip, err = intParam(v, "skip"); err != nil {
		return q, internal.NewValidationFieldError("skip", "skip must be a number", internal.ErrCodeInvalidQuery)
	}
	return q, nil
}

func (q Query) Validate() *internal.AppError {
	var errs []internal.ValidationError
	add := func(field, msg string) {
		errs = append(errs, internal.ValidationError{Field: field, Message: msg, Code: string(internal.ErrCodeInvalidQuery)})
	}

	if q.Action != "" && !q.Action.Valid() {
		add("action", "action must be one of CREATE, UPDATE, DELETE")
	}
	for _, a := range q.Actions {
		if !a.Valid() {
			add("actions", "actions must be CREATE, UPDATE or DELETE")
			break
		}
	}
	if q.Status != "" && !q.Status.Valid() {
		add("status", "status must be SUCCESS or FAILED")
	}
	if q.Limit < 0 || q.Limit > MaxLimit {
		add("limit", "limit must be between 0 and "+strconv.Itoa(MaxLimit))
	}
	if q.Skip < 0 {
		add("skip", "skip must not be negative")
	}

	start, startOK := parseDate(q.StartDate)
	end, endOK := parseDate(q.EndDate)
	if q.StartDate != "" && !startOK {
		add("startDate", "startDate must be a date")
	}
	if q.EndDate != "" && !endOK {
		add("endDate", "endDate must be a date")
	}
	if startOK && endOK && end.Before(start) {
		add("endDate", "endDate must not be before startDate")
	}

	if len(errs) > 0 {
		return internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.ValidationErrors{Errors: errs})
	}
	return nil
}

// EntityValues is the query string for GET /audit/entity/{type}/{id}.
func (q Query) EntityValues() url.Values {
	v := url.Values{}
	setIf(v, "startDate", q.StartDate)
	setIf(v, "endDate", q.EndDate)
	if len(q.Actions) > 0 {
		parts := make([]string, len(q.Actions))
		for i, a := range q.Actions {
			parts[i] = string(a)
		}
		v.Set("actions", strings.Join(parts, ","))
	}
	setIf(v, "status", string(q.Status))
	q.setPaging(v)
	return v
}

// SearchValues is the query string for GET /audit/.
func (q Query) SearchValues() url.Values {
	v := url.Values{}
	setIf(v, "entity_type", q.EntityType)
	setIf(v, "entity_id", q.EntityID)
	setIf(v, "user_id", q.UserID)
	setIf(v, "action", string(q.Action))
	setIf(v, "startDate", q.StartDate)
	setIf(v, "endDate", q.EndDate)
	setIf(v, "status", string(q.Status))
	q.setPaging(v)
	return v
}

func (q Query) setPaging(v url.Values) {
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func first(v url.Values, keys ...string) string {
	for _, k := range keys {
		if val := v.Get(k); val != "" {
			return val
		}
	}
	return ""
}

func intParam(v url.Values, key string) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
