package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/profile"
	"github.com/tidwall/gjson"
)

// Authenticator exchanges credentials for the backend's bearer token.
type Authenticator struct {
	client *Client
}

func NewAuthenticator(client *Client) auth.Authenticator {
	return &Authenticator{client: client}
}

func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*auth.UpstreamLogin, error) {
	body, err := a.client.do(ctx, call{
		op:     "authenticate",
		method: http.MethodPost,
		path:   "/users/authenticate",
		body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, err
	}

	token := gjson.GetBytes(body, "user.token").String()
	if token == "" {
		return nil, internal.NewUpstreamError(http.StatusBadGateway, "Login response did not include a token", nil)
	}

	var user auth.SessionUser
	if err := unmarshalAt(body, "user", &user); err != nil {
		return nil, err
	}
	return &auth.UpstreamLogin{
		Token:   token,
		User:    user,
		Message: message(body),
	}, nil
}

// EmployeeRepository serves the directory from the backend's /users endpoints.
type EmployeeRepository struct {
	client *Client
}

func NewEmployeeRepository(client *Client) employee.RepositoryAPI {
	return &EmployeeRepository{client: client}
}

func (r *EmployeeRepository) List(ctx context.Context, token string) ([]employee.User, error) {
	var users []employee.User
	err := r.client.decode(ctx, call{
		op:     "list_users",
		method: http.MethodGet,
		path:   "/users/",
		token:  token,
	}, "users", &users)
	return users, err
}

func (r *EmployeeRepository) Get(ctx context.Context, token, id string) (*employee.User, error) {
	var u *employee.User
	err := r.client.decode(ctx, call{
		op:       "get_user",
		method:   http.MethodGet,
		path:     userPath(id, ""),
		token:    token,
		notFound: internal.ErrUserNotFound.Message,
	}, "user", &u)
	return u, err
}

func (r *EmployeeRepository) Create(ctx context.Context, token string, u employee.User) (*employee.User, string, error) {
	body, err := r.client.do(ctx, call{
		op:       "create_user",
		method:   http.MethodPost,
		path:     "/users/create",
		token:    token,
		body:     u,
		fallback: "Failed to create user",
	})
	if err != nil {
		return nil, "", err
	}
	var created *employee.User
	if err := unmarshalAt(body, "user", &created); err != nil {
		return nil, "", err
	}
	return created, message(body), nil
}

func (r *EmployeeRepository) Update(ctx context.Context, token, id string, u employee.User) (*employee.User, error) {
	var updated *employee.User
	err := r.client.decode(ctx, call{
		op:       "update_user",
		method:   http.MethodPut,
		path:     "/users/update/" + url.PathEscape(id),
		token:    token,
		body:     u,
		fallback: "Failed to update user",
		notFound: internal.ErrUserNotFound.Message,
	}, "user", &updated)
	return updated, err
}

// ProfileRepository is the self-service half of /users.
type ProfileRepository struct {
	client *Client
}

func NewProfileRepository(client *Client) profile.RepositoryAPI {
	return &ProfileRepository{client: client}
}

func (r *ProfileRepository) Profile(ctx context.Context, token, id string) (*employee.CompleteDetails, error) {
	var d *employee.CompleteDetails
	err := r.client.decode(ctx, call{
		op:       "get_profile",
		method:   http.MethodGet,
		path:     userPath(id, "/profile"),
		token:    token,
		notFound: internal.ErrUserNotFound.Message,
	}, "user", &d)
	return d, err
}

func (r *ProfileRepository) UpdateProfile(ctx context.Context, token, id string, d profile.UpdateDTO) (string, error) {
	body, err := r.client.do(ctx, call{
		op:       "update_profile",
		method:   http.MethodPut,
		path:     userPath(id, "/profile"),
		token:    token,
		body:     d,
		notFound: internal.ErrUserNotFound.Message,
	})
	if err != nil {
		return "", err
	}
	return message(body), nil
}

func (r *ProfileRepository) ChangePassword(ctx context.Context, token, id, oldPassword, newPassword string) (string, error) {
	body, err := r.client.do(ctx, call{
		op:       "change_password",
		method:   http.MethodPut,
		path:     userPath(id, "/update-password"),
		token:    token,
		body:     map[string]string{"oldPassword": oldPassword, "newPassword": newPassword},
		fallback: "Failed to change password",
	})
	if err != nil {
		return "", err
	}
	return message(body), nil
}

func (r *ProfileRepository) UpdateProfilePicture(ctx context.Context, token, id, pictureURL string) (*employee.User, string, error) {
	body, err := r.client.do(ctx, call{
		op:       "update_profile_picture",
		method:   http.MethodPut,
		path:     userPath(id, "/profile-picture"),
		token:    token,
		body:     profile.ProfilePictureDTO{ProfilePictureURL: pictureURL},
		fallback: "Failed to update profile picture",
		notFound: internal.ErrUserNotFound.Message,
	})
	if err != nil {
		return nil, "", err
	}
	var u *employee.User
	if err := unmarshalAt(body, "user", &u); err != nil {
		return nil, "", err
	}
	return u, message(body), nil
}

func (r *ProfileRepository) PassportVisa(ctx context.Context, token, id string) (*employee.PassportVisa, error) {
	var pv *employee.PassportVisa
	err := r.client.decode(ctx, call{
		op:     "get_passport_visa",
		method: http.MethodGet,
		path:   userPath(id, "/passport-visa"),
		token:  token,
	}, "passportVisa", &pv)
	return pv, err
}

func (r *ProfileRepository) Experience(ctx context.Context, token, id string) ([]employee.Experience, error) {
	var exp []employee.Experience
	err := r.client.decode(ctx, call{
		op:     "get_experience",
		method: http.MethodGet,
		path:   userPath(id, "/experience"),
		token:  token,
	}, "experience", &exp)
	return exp, err
}

func (r *ProfileRepository) IdleDays(ctx context.Context, token, id string) (int, error) {
	body, err := r.client.do(ctx, call{
		op:     "get_idle_days",
		method: http.MethodGet,
		path:   userPath(id, "/idle-days"),
		token:  token,
	})
	if err != nil {
		return 0, err
	}
	return int(gjson.GetBytes(body, "totalIdleDays").Int()), nil
}

func (r *ProfileRepository) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	body, err := r.client.do(ctx, call{
		op:     "request_password_reset",
		method: http.MethodPost,
		path:   "/users/request-password-reset",
		body:   map[string]string{"email": email},
	})
	if err != nil {
		return "", err
	}
	return message(body), nil
}

func (r *ProfileRepository) VerifyResetToken(ctx context.Context, email, token string) (bool, error) {
	body, err := r.client.do(ctx, call{
		op:     "verify_reset_token",
		method: http.MethodPost,
		path:   "/users/verify-reset-token",
		body:   map[string]string{"token": token, "email": email},
	})
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(body, "valid").Bool(), nil
}

func (r *ProfileRepository) ResetPassword(ctx context.Context, email, token, newPassword string) (string, error) {
	body, err := r.client.do(ctx, call{
		op:     "reset_password",
		method: http.MethodPost,
		path:   "/users/reset-password",
		body:   map[string]string{"token": token, "email": email, "newPassword": newPassword},
	})
	if err != nil {
		return "", err
	}
	return message(body), nil
}
