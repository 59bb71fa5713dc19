package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/employee-console/internal/auth"
	sessionDatamodel "github.com/frahmantamala/employee-console/internal/core/datamodel/session"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) auth.RepositoryAPI {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, sess *sessionDatamodel.Session) error {
	return r.db.WithContext(ctx).Create(sess).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*sessionDatamodel.Session, error) {
	var sess sessionDatamodel.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (r *SessionRepository) RotateRefresh(ctx context.Context, id, refreshHash string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&sessionDatamodel.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"refresh_token_hash": refreshHash,
			"expires_at":         expiresAt,
			"updated_at":         time.Now().UTC(),
		}).Error
}

func (r *SessionRepository) UpdateUser(ctx context.Context, userID, userJSON string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&sessionDatamodel.Session{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"user_json":  userJSON,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionDatamodel.Session{}).Error
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", before).Delete(&sessionDatamodel.Session{})
	return res.RowsAffected, res.Error
}
