package repository

import (
	"context"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	ListByRoles(ctx context.Context, roles ...lifecycle.Role) ([]model.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, hash string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, hash string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translate(GetDB(ctx, r.db).Create(user).Error, "user")
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "lower(email) = lower(?)", email).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "user")
	}

	offset := (page - 1) * limit
	if err := db.Order("full_name").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, translate(err, "user")
	}
	return users, total, nil
}

func (r *userRepository) ListByRoles(ctx context.Context, roles ...lifecycle.Role) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).
		Where("role IN ? AND is_active = ?", roles, true).
		Find(&users).Error
	return users, translate(err, "user")
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now()})
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user")
	}
	return nil
}

func (r *userRepository) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return translate(GetDB(ctx, r.db).Create(token).Error, "refresh token")
}

func (r *userRepository) FindRefreshToken(ctx context.Context, hash string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	if err := GetDB(ctx, r.db).First(&token, "token_hash = ?", hash).Error; err != nil {
		return nil, translate(err, "refresh token")
	}
	return &token, nil
}

func (r *userRepository) DeleteRefreshToken(ctx context.Context, hash string) error {
	return translate(GetDB(ctx, r.db).Where("token_hash = ?", hash).Delete(&model.RefreshToken{}).Error, "refresh token")
}

func (r *userRepository) DeleteRefreshTokensForUser(ctx context.Context, userID uuid.UUID) error {
	return translate(GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error, "refresh token")
}
