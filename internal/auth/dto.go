package auth

import (
	"strings"

	"github.com/frahmantamala/employee-console/internal"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d LoginDTO) Validate() error {
	var errs []internal.ValidationError
	if strings.TrimSpace(d.Email) == "" {
		errs = append(errs, internal.ValidationError{Field: "email", Message: "Email is required", Code: string(internal.ErrCodeRequired)})
	}
	if d.Password == "" {
		errs = append(errs, internal.ValidationError{Field: "password", Message: "Password is required", Code: string(internal.ErrCodeRequired)})
	}
	if len(errs) == 0 {
		return nil
	}
	return internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
		WithDetails(internal.ValidationErrors{Errors: errs})
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return internal.NewValidationFieldError("refresh_token", "Refresh token is required", internal.ErrCodeRequired)
	}
	return nil
}
