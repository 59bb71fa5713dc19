package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	sessionDatamodel "github.com/frahmantamala/employee-console/internal/core/datamodel/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo          RepositoryAPI
	authenticator Authenticator
	tokens        TokenGenerator
	sessionTTL    time.Duration
	bcryptCost    int
	now           func() time.Time
	logger        *slog.Logger
}

type ServiceConfig struct {
	SessionTTL time.Duration
	BCryptCost int
}

func NewService(repo RepositoryAPI, authenticator Authenticator, tokens TokenGenerator, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:          repo,
		authenticator: authenticator,
		tokens:        tokens,
		sessionTTL:    cfg.SessionTTL,
		bcryptCost:    cfg.BCryptCost,
		now:           time.Now,
		logger:        logger,
	}
}

// Login checks credentials upstream and opens a console session wrapping the upstream token.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	up, err := s.authenticator.Authenticate(ctx, strings.TrimSpace(dto.Email), dto.Password)
	if err != nil {
		return nil, err
	}
	if up == nil || up.Token == "" {
		return nil, internal.ErrInvalidCredentials
	}

	userJSON, err := json.Marshal(up.User)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode session user", err)
	}

	sessionID := uuid.NewString()
	refreshToken, jti, err := s.tokens.GenerateRefreshToken(sessionID)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue refresh token", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(jti), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash refresh token", err)
	}

	row := &sessionDatamodel.Session{
		ID:               sessionID,
		UserID:           up.User.ID,
		UserJSON:         string(userJSON),
		UpstreamToken:    up.Token,
		RefreshTokenHash: string(hash),
		ExpiresAt:        s.now().Add(s.sessionTTL).UTC(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create console session", "error", err, "user_id", up.User.ID)
		return nil, internal.NewInternalError("failed to create session", err)
	}

	sess := &Session{ID: sessionID, User: up.User, UpstreamToken: up.Token, ExpiresAt: row.ExpiresAt}
	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(sess)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue access token", err)
	}

	message := up.Message
	if message == "" {
		message = LoginSuccessMessage
	}

	s.logger.Info("console session opened", "session_id", sessionID, "user_id", up.User.ID)
	return &LoginResult{
		AuthTokens: AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken, ExpiresAt: expiresAt},
		User:       up.User,
		Message:    message,
		RedirectTo: DefaultLoginRedirect,
	}, nil
}

// ResolveSession turns an access token into a live session. Missing and expired sessions
// are the same outcome.
func (s *Service) ResolveSession(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	row, err := s.loadLive(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	return toSession(row)
}

// Refresh rotates both tokens. A refresh token whose jti no longer matches the stored hash
// has already been used, so the session is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	if err := (RefreshTokenDTO{RefreshToken: refreshToken}).Validate(); err != nil {
		return nil, err
	}
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	row, err := s.loadLive(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(row.RefreshTokenHash), []byte(claims.ID)) != nil {
		s.logger.Warn("refresh token reuse detected, revoking session", "session_id", row.ID, "user_id", row.UserID)
		if err := s.repo.Delete(ctx, row.ID); err != nil {
			s.logger.Error("failed to revoke session", "error", err, "session_id", row.ID)
		}
		return nil, internal.ErrInvalidToken
	}

	sess, err := toSession(row)
	if err != nil {
		return nil, err
	}

	newRefresh, jti, err := s.tokens.GenerateRefreshToken(row.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue refresh token", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(jti), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash refresh token", err)
	}
	expires := s.now().Add(s.sessionTTL).UTC()
	if err := s.repo.RotateRefresh(ctx, row.ID, string(hash), expires); err != nil {
		s.logger.Error("failed to rotate refresh token", "error", err, "session_id", row.ID)
		return nil, internal.NewInternalError("failed to refresh session", err)
	}
	sess.ExpiresAt = expires

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(sess)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue access token", err)
	}
	return &AuthTokens{AccessToken: accessToken, RefreshToken: newRefresh, ExpiresAt: expiresAt}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return internal.ErrSessionNotFound
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		s.logger.Error("failed to delete console session", "error", err, "session_id", sessionID)
		return internal.NewInternalError("failed to log out", err)
	}
	s.logger.Info("console session closed", "session_id", sessionID)
	return nil
}

// SyncUser rewrites the cached user on every open session of that user, so a profile
// change shows up without signing in again.
func (s *Service) SyncUser(ctx context.Context, user SessionUser) error {
	if user.ID == "" {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	n, err := s.repo.UpdateUser(ctx, user.ID, string(raw))
	if err != nil {
		return fmt.Errorf("sync session user %s: %w", user.ID, err)
	}
	s.logger.Debug("session user synced", "user_id", user.ID, "sessions", n)
	return nil
}

// PurgeExpired removes sessions past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}

func (s *Service) loadLive(ctx context.Context, sessionID string) (*sessionDatamodel.Session, error) {
	if sessionID == "" {
		return nil, internal.ErrSessionNotFound
	}
	row, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to load console session", "error", err, "session_id", sessionID)
		return nil, internal.NewInternalError("failed to load session", err)
	}
	if row == nil {
		return nil, internal.ErrSessionNotFound
	}
	if row.Expired(s.now()) {
		if err := s.repo.Delete(ctx, row.ID); err != nil {
			s.logger.Warn("failed to drop expired session", "error", err, "session_id", row.ID)
		}
		return nil, internal.ErrSessionNotFound
	}
	return row, nil
}

func toSession(row *sessionDatamodel.Session) (*Session, error) {
	var user SessionUser
	if err := json.Unmarshal([]byte(row.UserJSON), &user); err != nil {
		return nil, internal.NewInternalError("corrupt session user", err)
	}
	return &Session{ID: row.ID, User: user, UpstreamToken: row.UpstreamToken, ExpiresAt: row.ExpiresAt}, nil
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		Issuer:             "employee-console",
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(sess *Session) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.AccessTokenTTL)
	claims := &Claims{
		UserID:    sess.User.ID,
		SessionID: sess.ID,
		Access:    sess.User.Access,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   sess.User.ID,
			Issuer:    j.Issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.AccessTokenSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (j *JWTTokenGenerator) GenerateRefreshToken(sessionID string) (string, string, error) {
	jti, err := GenerateRandomToken()
	if err != nil {
		return "", "", err
	}
	now := time.Now()
	claims := &RefreshClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.Issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.RefreshTokenSecret)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := j.parse(tokenString, claims, j.AccessTokenSecret); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenString, claims, j.RefreshTokenSecret); err != nil {
		return nil, err
	}
	if claims.SessionID == "" || claims.ID == "" {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

func (j *JWTTokenGenerator) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(j.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return internal.ErrTokenExpired
		}
		return internal.ErrInvalidToken
	}
	if !token.Valid {
		return internal.ErrInvalidToken
	}
	return nil
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
