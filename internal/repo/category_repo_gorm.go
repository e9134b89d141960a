package repo

import (
	"context"

	"gorm.io/gorm"

	"quartz-storefront/internal/domain"
)

type CategoryRepo struct{ db *gorm.DB }

func NewCategoryRepo(db *gorm.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepo) Update(ctx context.Context, id string, p domain.CategoryPatch) error {
	var (
		v    domain.Category
		cols []string
	)
	if p.Name != nil {
		v.Name, cols = *p.Name, append(cols, "name")
	}
	if p.Slug != nil {
		v.Slug, cols = *p.Slug, append(cols, "slug")
	}
	if p.Description != nil {
		v.Description, cols = p.Description, append(cols, "description")
	}
	if p.ImageURL != nil {
		v.ImageURL, cols = p.ImageURL, append(cols, "image_url")
	}
	switch {
	case p.ClearParent:
		cols = append(cols, "parent_id")
	case p.ParentID != nil:
		v.ParentID, cols = p.ParentID, append(cols, "parent_id")
	}
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.Category{}).
		Where("id = ?", id).
		Select(append(cols, "updated_at")).
		Updates(&v).Error
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Category{}, "id = ?", id).Error
}

func (r *CategoryRepo) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	return first[domain.Category](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *CategoryRepo) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return first[domain.Category](r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *CategoryRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	var out []domain.Category
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *CategoryRepo) List(ctx context.Context, f domain.CategoryFilter) ([]domain.Category, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Category{}).
			Scopes(search(f.Search, "name", "slug", "description"))
		if f.OnlyMain {
			q = q.Where("parent_id IS NULL")
		}
		return q
	}
	order := []string{"created_at DESC", "id DESC"}
	if f.MainFirst {
		order = append([]string{"CASE WHEN parent_id IS NULL THEN 0 ELSE 1 END"}, order...)
	}
	return countAndFind[domain.Category](base, order, f.Offset, f.Limit)
}

func (r *CategoryRepo) Children(ctx context.Context, parentIDs []string, byName bool) ([]domain.Category, error) {
	var out []domain.Category
	if len(parentIDs) == 0 {
		return out, nil
	}
	order := "created_at DESC"
	if byName {
		order = "name ASC"
	}
	err := r.db.WithContext(ctx).Where("parent_id IN ?", parentIDs).Order(order).Find(&out).Error
	return out, err
}

func (r *CategoryRepo) MainByName(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.WithContext(ctx).Where("parent_id IS NULL").Order("name ASC").Find(&out).Error
	return out, err
}

func (r *CategoryRepo) CountProducts(ctx context.Context, ids []string) (map[string]int64, error) {
	return countBy(r.db.WithContext(ctx), &domain.Product{}, "category_id", ids)
}

func (r *CategoryRepo) CountChildren(ctx context.Context, ids []string) (map[string]int64, error) {
	return countBy(r.db.WithContext(ctx), &domain.Category{}, "parent_id", ids)
}

func (r *CategoryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Count(&n).Error
	return n, err
}
