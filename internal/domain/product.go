package domain

import (
	"context"
	"time"
)

type Product struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	Title       string    `gorm:"size:191;not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;size:191;not null" json:"slug"`
	Description *string   `gorm:"type:text" json:"description"`
	CategoryID  string    `gorm:"size:32;not null;index" json:"categoryId"`
	IsPremium   bool      `gorm:"not null;default:false" json:"isPremium"`
	Images      []string  `gorm:"type:text;serializer:json" json:"images"`
	Videos      []string  `gorm:"type:text;serializer:json" json:"videos"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

type ProductFilter struct {
	Search      string
	CategoryIDs []string
	Offset      int
	Limit       int
}

type ProductPatch struct {
	Title       *string
	Slug        *string
	Description *string
	CategoryID  *string
	IsPremium   *bool
	Images      *[]string
	Videos      *[]string
}

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id string, p ProductPatch) error
	// Delete removes the product and detaches enquiries that point at it.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	// InCategories returns every product of the given categories, created_at desc.
	InCategories(ctx context.Context, categoryIDs []string) ([]Product, error)
	Count(ctx context.Context) (int64, error)
}
