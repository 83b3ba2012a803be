package repository

import (
	"context"

	"ppda-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByNationalID(ctx context.Context, nationalID string) (*model.User, error)
	// ListNonAdmins returns regular users split into approved and pending.
	ListNonAdmins(ctx context.Context) (approved []model.User, pending []model.User, err error)
	Update(ctx context.Context, user *model.User) error

	SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Agency").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByNationalID(ctx context.Context, nationalID string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "national_id = ?", nationalID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListNonAdmins(ctx context.Context) ([]model.User, []model.User, error) {
	var approved, pending []model.User
	db := GetDB(ctx, r.db)

	// Each bucket starts from a fresh chain; reusing one accumulates conditions.
	if err := db.Preload("Agency").Where("is_admin = ? AND approved = ?", false, true).Order("email ASC").Find(&approved).Error; err != nil {
		return nil, nil, err
	}
	if err := db.Preload("Agency").Where("is_admin = ? AND approved = ?", false, false).Order("email ASC").Find(&pending).Error; err != nil {
		return nil, nil, err
	}
	return approved, pending, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *userRepository) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	if err := GetDB(ctx, r.db).First(&rt, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *userRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	return GetDB(ctx, r.db).Delete(&model.RefreshToken{}, "token = ?", token).Error
}

func (r *userRepository) DeleteRefreshTokensForUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.RefreshToken{}, "user_id = ?", userID).Error
}
