package session

import "time"

// Session is one signed-in console session. The refresh token itself is never stored,
// only a bcrypt hash of its jti.
type Session struct {
	ID               string    `gorm:"column:id;primaryKey;size:36"`
	UserID           string    `gorm:"column:user_id;index;not null"`
	UserJSON         string    `gorm:"column:user_json;not null"`
	UpstreamToken    string    `gorm:"column:upstream_token;not null"`
	RefreshTokenHash string    `gorm:"column:refresh_token_hash;size:100;not null"`
	ExpiresAt        time.Time `gorm:"column:expires_at;index;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Session) TableName() string {
	return "console_sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
