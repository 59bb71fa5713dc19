package profile

import (
	"context"

	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
)

// UpdateDTO is the self-service profile edit. Empty fields are left unchanged upstream.
// Visa is a pointer so that an explicit empty list, which removes every visa, is still sent.
type UpdateDTO struct {
	Name                   string                `json:"name,omitempty"`
	Branch                 string                `json:"branch,omitempty"`
	BirthDate              string                `json:"birthDate,omitempty"`
	Department             string                `json:"department,omitempty"`
	Designation            string                `json:"designation,omitempty"`
	JoinDate               string                `json:"joinDate,omitempty"`
	Gender                 employee.Gender       `json:"gender,omitempty"`
	Email                  string                `json:"email,omitempty"`
	PhoneNumber            string                `json:"phoneNumber,omitempty"`
	AlternateEmail         string                `json:"alternateEmail,omitempty"`
	AlternativePhoneNumber string                `json:"alternativePhoneNumber,omitempty"`
	Experience             []employee.Experience `json:"experience,omitempty"`
	Passport               *employee.Passport    `json:"passport,omitempty"`
	Visa                   *[]employee.Visa      `json:"visa,omitempty"`
}

type TravelDTO struct {
	Passport *employee.Passport `json:"passport"`
	Visa     []employee.Visa    `json:"visa"`
}

type ChangePasswordDTO struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type PasswordResetRequestDTO struct {
	Email string `json:"email"`
}

type VerifyResetTokenDTO struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type ResetPasswordDTO struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ProfilePictureDTO struct {
	ProfilePictureURL string `json:"profilePictureURL"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RepositoryAPI is the HR backend's self-service surface.
type RepositoryAPI interface {
	Profile(ctx context.Context, token, id string) (*employee.CompleteDetails, error)
	UpdateProfile(ctx context.Context, token, id string, d UpdateDTO) (string, error)
	ChangePassword(ctx context.Context, token, id, oldPassword, newPassword string) (string, error)
	UpdateProfilePicture(ctx context.Context, token, id, url string) (*employee.User, string, error)
	PassportVisa(ctx context.Context, token, id string) (*employee.PassportVisa, error)
	Experience(ctx context.Context, token, id string) ([]employee.Experience, error)
	IdleDays(ctx context.Context, token, id string) (int, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	VerifyResetToken(ctx context.Context, email, token string) (bool, error)
	ResetPassword(ctx context.Context, email, token, newPassword string) (string, error)
}

// SessionSync refreshes the user cached on open sessions.
type SessionSync interface {
	SyncUser(ctx context.Context, user auth.SessionUser) error
}

// DirectoryCache is told when an edit makes cached employee lists stale.
type DirectoryCache interface {
	Invalidate(ctx context.Context)
}
