package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/authsvc/internal/models"
)

// NewGorm builds a Store backed by the provided gorm connection.
func NewGorm(db *gorm.DB) Store {
	return Store{
		Users:   &gormUsers{db: db},
		Codes:   &gormCodes{db: db},
		Refresh: &gormRefreshTokens{db: db},
		Reset:   &gormResetTokens{db: db},
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *gormUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "phone = ?", phone).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) FindByEmailToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		First(&user, "email_token = ? AND email_token_expires > ?", token, now).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUsers) Save(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

type gormCodes struct {
	db *gorm.DB
}

func (r *gormCodes) Create(ctx context.Context, code *models.SMSCode) error {
	return translate(r.db.WithContext(ctx).Create(code).Error)
}

func (r *gormCodes) LatestByPhone(ctx context.Context, phone string) (*models.SMSCode, error) {
	var code models.SMSCode
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("sent_at DESC, id DESC").
		First(&code).Error
	if err != nil {
		return nil, translate(err)
	}
	return &code, nil
}

func (r *gormCodes) Save(ctx context.Context, code *models.SMSCode) error {
	return translate(r.db.WithContext(ctx).Save(code).Error)
}

type gormRefreshTokens struct {
	db *gorm.DB
}

func (r *gormRefreshTokens) Create(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *gormRefreshTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *gormRefreshTokens) Delete(ctx context.Context, token string) error {
	return translate(r.db.WithContext(ctx).Delete(&models.RefreshToken{}, "token = ?", token).Error)
}

func (r *gormRefreshTokens) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&models.RefreshToken{}, "user_id = ?", userID).Error)
}

func (r *gormRefreshTokens) DeleteExpiredByUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return translate(r.db.WithContext(ctx).
		Delete(&models.RefreshToken{}, "user_id = ? AND expires_at <= ?", userID, now).Error)
}

type gormResetTokens struct {
	db *gorm.DB
}

func (r *gormResetTokens) Replace(ctx context.Context, token *models.PasswordResetToken) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(token).Error)
}

func (r *gormResetTokens) FindValid(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	var row models.PasswordResetToken
	err := r.db.WithContext(ctx).
		First(&row, "token = ? AND expires_at > ?", token, now).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *gormResetTokens) Delete(ctx context.Context, token string) error {
	return translate(r.db.WithContext(ctx).Delete(&models.PasswordResetToken{}, "token = ?", token).Error)
}
