package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/employee-console/internal/access"
	sessionDatamodel "github.com/frahmantamala/employee-console/internal/core/datamodel/session"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LoginSuccessMessage  = "Login successful"
	LogoutMessage        = "You have been logged out successfully."
	DefaultLoginRedirect = "/home"
)

// SessionUser is the slice of the upstream user record the console keeps per session.
type SessionUser struct {
	ID                string `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Access            string `json:"access"`
	Department        string `json:"department"`
	Branch            string `json:"branch"`
	Designation       string `json:"designation"`
	ProfilePictureURL string `json:"profilePictureURL"`
}

func (u *SessionUser) ParsedAccess() access.Access {
	if u == nil {
		return access.Parse("")
	}
	return access.Parse(u.Access)
}

// Session is a resolved console session: who is signed in and the bearer token
// forwarded to the HR backend on their behalf.
type Session struct {
	ID            string      `json:"id"`
	User          SessionUser `json:"user"`
	UpstreamToken string      `json:"-"`
	ExpiresAt     time.Time   `json:"expires_at"`
}

// Allow reports whether the session passes the access gate for the given tokens.
// A nil session never passes.
func (s *Session) Allow(required ...string) bool {
	if s == nil {
		return access.Allow(false, "", required...)
	}
	return access.Allow(true, s.User.Access, required...)
}

// Claims are carried by the console access token.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`
	Access    string `json:"access"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by the refresh token; ID (jti) is the secret whose hash
// is stored against the session.
type RefreshClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type LoginResult struct {
	AuthTokens
	User       SessionUser `json:"user"`
	Message    string      `json:"message"`
	RedirectTo string      `json:"redirect_to"`
}

// UpstreamLogin is what the HR backend hands back for valid credentials.
type UpstreamLogin struct {
	Token   string
	User    SessionUser
	Message string
}

// Authenticator checks credentials against the HR backend.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*UpstreamLogin, error)
}

type TokenGenerator interface {
	GenerateAccessToken(sess *Session) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(sessionID string) (token string, jti string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*RefreshClaims, error)
}

type RepositoryAPI interface {
	Create(ctx context.Context, sess *sessionDatamodel.Session) error
	GetByID(ctx context.Context, id string) (*sessionDatamodel.Session, error)
	RotateRefresh(ctx context.Context, id, refreshHash string, expiresAt time.Time) error
	UpdateUser(ctx context.Context, userID, userJSON string) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	ResolveSession(ctx context.Context, accessToken string) (*Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type ctxKey string

const contextSessionKey ctxKey = "console_session"

func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextSessionKey, sess)
}

// SessionFromContext returns the session placed by AuthMiddleware, or nil.
func SessionFromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	sess, _ := ctx.Value(contextSessionKey).(*Session)
	return sess
}
