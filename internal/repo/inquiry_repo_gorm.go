package repo

import (
	"context"

	"gorm.io/gorm"

	"quartz-storefront/internal/domain"
)

type ContactRepo struct{ db *gorm.DB }

func NewContactRepo(db *gorm.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContactRepo) FindByID(ctx context.Context, id string) (*domain.Contact, error) {
	return first[domain.Contact](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *ContactRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Contact{}, "id = ?", id).Error
}

func (r *ContactRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Contact, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&domain.Contact{}).
			Scopes(search(f.Search, "name", "email", "message"))
	}
	return countAndFind[domain.Contact](base, []string{"created_at DESC", "id DESC"}, f.Offset, f.Limit)
}

func (r *ContactRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Contact{}).Count(&n).Error
	return n, err
}

type EnquiryRepo struct{ db *gorm.DB }

func NewEnquiryRepo(db *gorm.DB) *EnquiryRepo { return &EnquiryRepo{db: db} }

func (r *EnquiryRepo) Create(ctx context.Context, e *domain.Enquiry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EnquiryRepo) FindByID(ctx context.Context, id string) (*domain.Enquiry, error) {
	return first[domain.Enquiry](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *EnquiryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Enquiry{}, "id = ?", id).Error
}

func (r *EnquiryRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Enquiry, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&domain.Enquiry{}).
			Scopes(search(f.Search, "name", "email", "company", "message"))
	}
	return countAndFind[domain.Enquiry](base, []string{"created_at DESC", "id DESC"}, f.Offset, f.Limit)
}

func (r *EnquiryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Enquiry{}).Count(&n).Error
	return n, err
}
