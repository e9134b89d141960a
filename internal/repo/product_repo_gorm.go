package repo

import (
	"context"

	"gorm.io/gorm"

	"quartz-storefront/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepo) Update(ctx context.Context, id string, p domain.ProductPatch) error {
	var (
		v    domain.Product
		cols []string
	)
	if p.Title != nil {
		v.Title, cols = *p.Title, append(cols, "title")
	}
	if p.Slug != nil {
		v.Slug, cols = *p.Slug, append(cols, "slug")
	}
	if p.Description != nil {
		v.Description, cols = p.Description, append(cols, "description")
	}
	if p.CategoryID != nil {
		v.CategoryID, cols = *p.CategoryID, append(cols, "category_id")
	}
	if p.IsPremium != nil {
		v.IsPremium, cols = *p.IsPremium, append(cols, "is_premium")
	}
	if p.Images != nil {
		v.Images, cols = *p.Images, append(cols, "images")
	}
	if p.Videos != nil {
		v.Videos, cols = *p.Videos, append(cols, "videos")
	}
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Select(append(cols, "updated_at")).
		Updates(&v).Error
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Enquiry{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Product{}, "id = ?", id).Error
	})
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return first[domain.Product](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *ProductRepo) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return first[domain.Product](r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *ProductRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	var out []domain.Product
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Product{}).
			Scopes(search(f.Search, "title", "slug", "description"))
		if len(f.CategoryIDs) > 0 {
			q = q.Where("category_id IN ?", f.CategoryIDs)
		}
		return q
	}
	return countAndFind[domain.Product](base, []string{"created_at DESC", "id DESC"}, f.Offset, f.Limit)
}

func (r *ProductRepo) InCategories(ctx context.Context, categoryIDs []string) ([]domain.Product, error) {
	var out []domain.Product
	if len(categoryIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("category_id IN ?", categoryIDs).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error
	return n, err
}
