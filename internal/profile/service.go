package profile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
)

const (
	ProfileUpdatedMessage  = "Profile updated successfully"
	PasswordChangedMessage = "Password changed successfully"
	PictureUpdatedMessage  = "Profile picture updated successfully"
)

type Service struct {
	repo      RepositoryAPI
	sessions  SessionSync
	directory DirectoryCache
	logger    *slog.Logger
}

// NewService wires the self-service operations. sessions and directory may be nil.
func NewService(repo RepositoryAPI, sessions SessionSync, directory DirectoryCache, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sessions:  sessions,
		directory: directory,
		logger:    logger,
	}
}

// Get always reads the signed-in user's own record; there is no way to view someone else here.
func (s *Service) Get(ctx context.Context, sess *auth.Session) (*employee.CompleteDetails, error) {
	if sess == nil {
		return nil, internal.ErrSessionNotFound
	}
	details, err := s.repo.Profile(ctx, sess.UpstreamToken, sess.User.ID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, internal.ErrUserNotFound
	}
	details.User = details.User.Sanitized()
	return details, nil
}

func (s *Service) Update(ctx context.Context, sess *auth.Session, dto UpdateDTO) (*employee.CompleteDetails, string, error) {
	if sess == nil {
		return nil, "", internal.ErrSessionNotFound
	}
	if err := validateUpdate(dto, sess.User.Email); err != nil {
		return nil, "", err
	}

	message, err := s.repo.UpdateProfile(ctx, sess.UpstreamToken, sess.User.ID, dto)
	if err != nil {
		s.logger.Error("failed to update profile", "user_id", sess.User.ID, "error", err)
		return nil, "", err
	}
	if message == "" {
		message = ProfileUpdatedMessage
	}

	details, err := s.Get(ctx, sess)
	if err != nil {
		return nil, "", err
	}
	s.afterChange(ctx, details.User)
	return details, message, nil
}

// UpdateTravel saves passport and visas together; every passport field is required here.
func (s *Service) UpdateTravel(ctx context.Context, sess *auth.Session, dto TravelDTO) (*employee.CompleteDetails, string, error) {
	if sess == nil {
		return nil, "", internal.ErrSessionNotFound
	}
	if err := employee.ValidateTravelProfile(dto.Passport, dto.Visa); err != nil {
		return nil, "", err
	}
	visas := dto.Visa
	if visas == nil {
		visas = []employee.Visa{}
	}
	return s.Update(ctx, sess, UpdateDTO{Passport: dto.Passport, Visa: &visas})
}

func (s *Service) ChangePassword(ctx context.Context, sess *auth.Session, dto ChangePasswordDTO) (string, error) {
	if sess == nil {
		return "", internal.ErrSessionNotFound
	}
	if err := ValidateChangePassword(dto); err != nil {
		return "", err
	}
	message, err := s.repo.ChangePassword(ctx, sess.UpstreamToken, sess.User.ID, dto.OldPassword, dto.NewPassword)
	if err != nil {
		s.logger.Warn("password change rejected", "user_id", sess.User.ID, "error", err)
		return "", err
	}
	if message == "" {
		message = PasswordChangedMessage
	}
	return message, nil
}

// UpdateProfilePicture points the user's record at an uploaded image. It is also called
// by the upload subscriber, which has only a token and user id.
func (s *Service) UpdateProfilePicture(ctx context.Context, token, userID, url string) (*employee.User, string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, "", internal.ErrUserNotFound
	}
	if strings.TrimSpace(url) == "" {
		return nil, "", internal.NewValidationFieldError("profilePictureURL", "Profile picture URL is required", internal.ErrCodeRequired)
	}

	u, message, err := s.repo.UpdateProfilePicture(ctx, token, userID, url)
	if err != nil {
		s.logger.Error("failed to update profile picture", "user_id", userID, "error", err)
		return nil, "", err
	}
	if message == "" {
		message = PictureUpdatedMessage
	}
	if u == nil {
		// the backend did not echo the record; there is nothing complete to copy onto sessions
		if s.directory != nil {
			s.directory.Invalidate(ctx)
		}
		return &employee.User{ID: userID, ProfilePictureURL: url}, message, nil
	}
	clean := u.Sanitized()
	s.afterChange(ctx, clean)
	return &clean, message, nil
}

func (s *Service) PassportVisa(ctx context.Context, sess *auth.Session) (*employee.PassportVisa, error) {
	if sess == nil {
		return nil, internal.ErrSessionNotFound
	}
	pv, err := s.repo.PassportVisa(ctx, sess.UpstreamToken, sess.User.ID)
	if err != nil {
		return nil, err
	}
	if pv == nil {
		pv = &employee.PassportVisa{}
	}
	if pv.Visa == nil {
		pv.Visa = []employee.Visa{}
	}
	return pv, nil
}

func (s *Service) Experience(ctx context.Context, sess *auth.Session) ([]employee.Experience, error) {
	if sess == nil {
		return nil, internal.ErrSessionNotFound
	}
	exp, err := s.repo.Experience(ctx, sess.UpstreamToken, sess.User.ID)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		exp = []employee.Experience{}
	}
	return exp, nil
}

func (s *Service) IdleDays(ctx context.Context, sess *auth.Session) (int, error) {
	if sess == nil {
		return 0, internal.ErrSessionNotFound
	}
	return s.repo.IdleDays(ctx, sess.UpstreamToken, sess.User.ID)
}

func (s *Service) RequestPasswordReset(ctx context.Context, dto PasswordResetRequestDTO) (string, error) {
	if err := ValidateResetRequest(dto); err != nil {
		return "", err
	}
	return s.repo.RequestPasswordReset(ctx, strings.TrimSpace(dto.Email))
}

func (s *Service) VerifyResetToken(ctx context.Context, dto VerifyResetTokenDTO) (bool, error) {
	if err := ValidateVerifyToken(dto); err != nil {
		return false, err
	}
	return s.repo.VerifyResetToken(ctx, strings.TrimSpace(dto.Email), dto.Token)
}

func (s *Service) ResetPassword(ctx context.Context, dto ResetPasswordDTO) (string, error) {
	if err := ValidateResetPassword(dto); err != nil {
		return "", err
	}
	return s.repo.ResetPassword(ctx, strings.TrimSpace(dto.Email), dto.Token, dto.NewPassword)
}

// afterChange refreshes the user held on open sessions and drops cached directory pages.
func (s *Service) afterChange(ctx context.Context, u employee.User) {
	if s.directory != nil {
		s.directory.Invalidate(ctx)
	}
	if s.sessions == nil || u.ID == "" {
		return
	}
	if err := s.sessions.SyncUser(ctx, sessionUser(u)); err != nil {
		s.logger.Warn("failed to sync session user", "user_id", u.ID, "error", err)
	}
}

func sessionUser(u employee.User) auth.SessionUser {
	return auth.SessionUser{
		ID:                u.ID,
		Code:              u.Code,
		Name:              u.Name,
		Email:             u.Email,
		Access:            u.Access,
		Department:        u.Department,
		Branch:            u.Branch,
		Designation:       u.Designation,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}
