package profile

import (
	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/validation"
)

func changePasswordSchema(d ChangePasswordDTO) *validation.ValidationBuilder {
	v := validation.NewValidator()
	v.Field("oldPassword", d.OldPassword).RequiredMessage("Old password is required")
	v.Field("newPassword", d.NewPassword).StrongPassword()
	v.Field("confirmPassword", d.ConfirmPassword).Matches(d.NewPassword, "Passwords do not match")
	return v
}

func ValidateChangePassword(d ChangePasswordDTO) *internal.AppError {
	return changePasswordSchema(d).Validate()
}

// ValidateResetPassword checks the confirmation first and reports only that when it differs.
func ValidateResetPassword(d ResetPasswordDTO) *internal.AppError {
	v := validation.NewValidator()
	v.Require("confirmPassword", "Passwords do not match", d.NewPassword == d.ConfirmPassword)
	v.Field("email", d.Email).Required().Email()
	v.Field("token", d.Token).Required()
	v.Field("newPassword", d.NewPassword).MinLength(6, "Password must be at least 6 characters long")
	return v.Validate()
}

func ValidateResetRequest(d PasswordResetRequestDTO) *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	return v.Validate()
}

func ValidateVerifyToken(d VerifyResetTokenDTO) *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("token", d.Token).Required()
	return v.Validate()
}

func validateUpdate(d UpdateDTO, currentEmail string) *internal.AppError {
	email := d.Email
	if email == "" {
		email = currentEmail
	}
	v := validation.NewValidator()
	v.Field("email", d.Email).Email()
	v.Field("alternateEmail", d.AlternateEmail).Email().NotEqual(email, "Alternate email cannot be the same as primary email")
	if d.Passport != nil {
		v.AllOrNone("passport", "If any passport field is filled, all passport fields must be filled",
			d.Passport.PassportNumber, d.Passport.PassportIssueDate, d.Passport.PassportExpiryDate)
	}
	return v.Validate()
}
