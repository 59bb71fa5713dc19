package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/frahmantamala/employee-console/internal"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ValidatorFunc returns nil when the value passes.
type ValidatorFunc func(interface{}) *internal.ValidationError

type FieldValidator struct {
	FieldName  string
	label      string
	Value      interface{}
	Validators []ValidatorFunc
}

type precondition struct {
	field   string
	message string
	ok      bool
}

// ValidationBuilder collects field rules and reports at most one message per field.
// Preconditions short-circuit: when one fails only the failed preconditions are reported.
type ValidationBuilder struct {
	fields        []*FieldValidator
	preconditions []precondition
	extra         []internal.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName: name,
		Value:     value,
	}
	v.fields = append(v.fields, fv)
	return fv
}

// Require adds a precondition that must hold before any field rule is checked.
func (v *ValidationBuilder) Require(field, message string, ok bool) *ValidationBuilder {
	v.preconditions = append(v.preconditions, precondition{field: field, message: message, ok: ok})
	return v
}

// AllOrNone fails when some but not all of values are non-blank.
func (v *ValidationBuilder) AllOrNone(field, message string, values ...string) *ValidationBuilder {
	filled := 0
	for _, s := range values {
		if strings.TrimSpace(s) != "" {
			filled++
		}
	}
	if filled > 0 && filled < len(values) {
		v.extra = append(v.extra, internal.ValidationError{
			Field:   field,
			Message: message,
			Code:    string(internal.ErrCodeIncompleteGroup),
		})
	}
	return v
}

// Label overrides the humanized field name used in generated messages.
func (fv *FieldValidator) Label(label string) *FieldValidator {
	fv.label = label
	return fv
}

func (fv *FieldValidator) displayName() string {
	if fv.label != "" {
		return fv.label
	}
	return Humanize(fv.FieldName)
}

func (fv *FieldValidator) fail(message string, code internal.ErrorCode) *internal.ValidationError {
	return &internal.ValidationError{Field: fv.FieldName, Message: message, Code: string(code)}
}

func (fv *FieldValidator) Required() *FieldValidator {
	return fv.RequiredMessage(fmt.Sprintf("%s is required", fv.displayName()))
}

func (fv *FieldValidator) RequiredMessage(message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.ValidationError {
		if isBlank(value) {
			return fv.fail(message, internal.ErrCodeRequired)
		}
		return nil
	})
	return fv
}

// Email checks the loose something@something.something shape. Blank values pass.
func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.ValidationError {
		s, _ := asString(value)
		if s != "" && !emailPattern.MatchString(s) {
			return fv.fail("Invalid email format", internal.ErrCodeInvalidEmail)
		}
		return nil
	})
	return fv
}

// NotEqual fails when a non-blank value equals other.
func (fv *FieldValidator) NotEqual(other, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.ValidationError {
		s, _ := asString(value)
		if s != "" && s == other {
			return fv.fail(message, internal.ErrCodeDuplicateEmail)
		}
		return nil
	})
	return fv
}

// Matches fails unless the value equals other exactly.
func (fv *FieldValidator) Matches(other, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.ValidationError {
		s, _ := asString(value)
		if s != other {
			return fv.fail(message, internal.ErrCodeMismatch)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int, message string) *FieldValidator {
	if message == "" {
		message = fmt.Sprintf("%s must be at least %d characters", fv.displayName(), min)
	}
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.ValidationError {
		s, _ := asString(value)
		if len([]rune(s)) < min {
			return fv.fail(message, internal.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

// StrongPassword requires an uppercase letter, a lowercase letter, a digit and eight characters,
// naming every missing one in a single message.
func (fv *FieldValidator) StrongPassword() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.ValidationError {
		s, _ := asString(value)
		if failed := PasswordFailures(s); len(failed) > 0 {
			return fv.fail("Password must contain "+strings.Join(failed, ", "), internal.ErrCodeWeakPassword)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinItems(min int, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *internal.ValidationError {
		if countItems(value) < min {
			return fv.fail(message, internal.ErrCodeRequired)
		}
		return nil
	})
	return fv
}

func (v *ValidationBuilder) collect() []internal.ValidationError {
	var failed []internal.ValidationError
	for _, p := range v.preconditions {
		if !p.ok {
			failed = append(failed, internal.ValidationError{Field: p.field, Message: p.message, Code: string(internal.ErrCodeIncompleteGroup)})
		}
	}
	if len(failed) > 0 {
		return failed
	}

	var validationErrors []internal.ValidationError
	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if err := validator(field.Value); err != nil {
				validationErrors = append(validationErrors, *err)
				break
			}
		}
	}
	return append(validationErrors, v.extra...)
}

func (v *ValidationBuilder) Validate() *internal.AppError {
	validationErrors := v.collect()
	if len(validationErrors) > 0 {
		return internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.ValidationErrors{Errors: validationErrors})
	}
	return nil
}

// Errors is the field -> message view of Validate; empty when valid.
func (v *ValidationBuilder) Errors() map[string]string {
	return internal.ValidationErrors{Errors: v.collect()}.FieldMap()
}

// PasswordFailures lists the unmet strength checks in display order.
func PasswordFailures(password string) []string {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}

	var failed []string
	if !upper {
		failed = append(failed, "one uppercase letter")
	}
	if !lower {
		failed = append(failed, "one lowercase letter")
	}
	if !digit {
		failed = append(failed, "one number")
	}
	if len([]rune(password)) < 8 {
		failed = append(failed, "minimum 8 characters")
	}
	return failed
}

// Humanize turns a camelCase field name into a label: "alternateEmail" -> "Alternate Email".
func Humanize(field string) string {
	if field == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func asString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}

func isBlank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case []string:
		return len(v) == 0
	}
	if s, ok := asString(value); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func countItems(value interface{}) int {
	switch v := value.(type) {
	case []string:
		n := 0
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				n++
			}
		}
		return n
	case []interface{}:
		return len(v)
	}
	return 0
}
