package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"quartz-storefront/internal/core/auth"
	"quartz-storefront/internal/domain"
	"quartz-storefront/internal/service"
)

// Catalog is the slice of the catalog service the handlers call.
type Catalog interface {
	ListCategories(ctx context.Context, in service.CategoryListInput) (domain.List[service.CategoryRow], error)
	ListAllCategoriesFlat(ctx context.Context, in service.CategoryFlatInput) (domain.List[service.CategoryRow], error)
	GetCategoryByID(ctx context.Context, id string) (*service.CategoryDetail, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*service.CategorySlugDetail, error)
	GetMainCategories(ctx context.Context) ([]domain.CategoryRef, error)
	CategoryOptions(ctx context.Context) (*service.CategoryOptions, error)
	Navigation(ctx context.Context) ([]domain.MainCategory, error)
	CreateCategory(ctx context.Context, in service.CategoryInput) (*service.CategoryRow, error)
	UpdateCategory(ctx context.Context, id string, in service.CategoryUpdate) (*service.CategoryRow, error)
	DeleteCategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context, in service.ProductListInput) (domain.List[service.ProductRow], error)
	GetProductByID(ctx context.Context, id string) (*service.ProductDetail, error)
	ListProductsByCategorySlug(ctx context.Context, slug string, page domain.Page) (*service.CategoryProducts, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*service.ProductDetail, error)
	UpdateProduct(ctx context.Context, id string, in service.ProductUpdate) (*service.ProductDetail, error)
	DeleteProduct(ctx context.Context, id string) error
}

type Inquiries interface {
	CreateContact(ctx context.Context, in service.ContactInput) (*domain.Contact, error)
	CreateEnquiry(ctx context.Context, in service.EnquiryInput) (*domain.Enquiry, error)
	ListContacts(ctx context.Context, in service.InquiryListInput) (domain.List[domain.Contact], error)
	ListEnquiries(ctx context.Context, in service.InquiryListInput) (domain.List[service.EnquiryRow], error)
	DeleteContact(ctx context.Context, id string) error
	DeleteEnquiry(ctx context.Context, id string) error
}

type Accounts interface {
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Resolve(ctx context.Context, token string) (*auth.Session, error)
	CurrentUser(ctx context.Context, token string) (*service.PublicUser, error)
	UpdatePassword(ctx context.Context, sess *auth.Session, in service.PasswordInput) error
}

type Dashboards interface {
	Load(ctx context.Context) (*service.Dashboard, error)
}

type none = struct{}

type deleted struct {
	ID string `json:"id"`
}

func setCookies(c *gin.Context, cks []*http.Cookie) {
	for _, ck := range cks {
		http.SetCookie(c.Writer, ck)
	}
}
