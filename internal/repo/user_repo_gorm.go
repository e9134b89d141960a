package repo

import (
	"context"

	"gorm.io/gorm"

	"quartz-storefront/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return first[domain.User](r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"password": hash}).Error
}
