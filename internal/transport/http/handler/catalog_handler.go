package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quartz-storefront/internal/domain"
	"quartz-storefront/internal/service"
	httpez "quartz-storefront/internal/transport/http/ez"
)

type CatalogHandler struct {
	svc Catalog
	log *zap.Logger
}

func NewCatalogHandler(svc Catalog, l *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: l}
}

func (h *CatalogHandler) Priority() int { return 10 }

// MountAPI serves the public storefront reads.
func (h *CatalogHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g, h.log)

	httpez.RegisterAction(ez, httpez.Action[service.CategoryListInput, domain.List[service.CategoryRow]]{
		Method: http.MethodGet, Path: "/categories", Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *service.CategoryListInput) (domain.List[service.CategoryRow], error) {
			return h.svc.ListCategories(c.Request.Context(), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, []domain.CategoryRef]{
		Method: http.MethodGet, Path: "/categories/main", Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *none) ([]domain.CategoryRef, error) {
			return h.svc.GetMainCategories(c.Request.Context())
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, []domain.MainCategory]{
		Method: http.MethodGet, Path: "/categories/navigation", Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *none) ([]domain.MainCategory, error) {
			return h.svc.Navigation(c.Request.Context())
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, *service.CategorySlugDetail]{
		Method: http.MethodGet, Path: "/categories/slug/:slug", Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *none) (*service.CategorySlugDetail, error) {
			return h.svc.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
		},
	})
	httpez.RegisterAction(ez, httpez.Action[domain.Page, *service.CategoryProducts]{
		Method: http.MethodGet, Path: "/categories/slug/:slug/products", Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *domain.Page) (*service.CategoryProducts, error) {
			return h.svc.ListProductsByCategorySlug(c.Request.Context(), c.Param("slug"), *in)
		},
	})
	h.mountReads(ez)
}

// MountAdmin serves the back-office catalog screens and mutations.
func (h *CatalogHandler) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g, h.log)

	httpez.RegisterAction(ez, httpez.Action[service.CategoryFlatInput, domain.List[service.CategoryRow]]{
		Method: http.MethodGet, Path: "/categories", Binder: httpez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *service.CategoryFlatInput) (domain.List[service.CategoryRow], error) {
			return h.svc.ListAllCategoriesFlat(c.Request.Context(), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.CategoryInput, *service.CategoryRow]{
		Method: http.MethodPost, Path: "/categories", Binder: httpez.BindJSON, Auth: true, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.CategoryInput) (*service.CategoryRow, error) {
			return h.svc.CreateCategory(c.Request.Context(), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.CategoryUpdate, *service.CategoryRow]{
		Method: http.MethodPut, Path: "/categories/:id", Binder: httpez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.CategoryUpdate) (*service.CategoryRow, error) {
			return h.svc.UpdateCategory(c.Request.Context(), c.Param("id"), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, deleted]{
		Method: http.MethodDelete, Path: "/categories/:id", Binder: httpez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (deleted, error) {
			id := c.Param("id")
			return deleted{ID: id}, h.svc.DeleteCategory(c.Request.Context(), id)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.ProductInput, *service.ProductDetail]{
		Method: http.MethodPost, Path: "/products", Binder: httpez.BindJSON, Auth: true, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.ProductInput) (*service.ProductDetail, error) {
			return h.svc.CreateProduct(c.Request.Context(), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.ProductUpdate, *service.ProductDetail]{
		Method: http.MethodPut, Path: "/products/:id", Binder: httpez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.ProductUpdate) (*service.ProductDetail, error) {
			return h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, deleted]{
		Method: http.MethodDelete, Path: "/products/:id", Binder: httpez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *none) (deleted, error) {
			id := c.Param("id")
			return deleted{ID: id}, h.svc.DeleteProduct(c.Request.Context(), id)
		},
	})
	h.mountReads(ez)
}

// mountReads registers the lookups both surfaces share.
func (h *CatalogHandler) mountReads(ez httpez.EZ) {
	httpez.RegisterAction(ez, httpez.Action[none, *service.CategoryOptions]{
		Method: http.MethodGet, Path: "/categories/options", Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *none) (*service.CategoryOptions, error) {
			return h.svc.CategoryOptions(c.Request.Context())
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, *service.CategoryDetail]{
		Method: http.MethodGet, Path: "/categories/:id", Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *none) (*service.CategoryDetail, error) {
			return h.svc.GetCategoryByID(c.Request.Context(), c.Param("id"))
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.ProductListInput, domain.List[service.ProductRow]]{
		Method: http.MethodGet, Path: "/products", Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *service.ProductListInput) (domain.List[service.ProductRow], error) {
			return h.svc.ListProducts(c.Request.Context(), *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[none, *service.ProductDetail]{
		Method: http.MethodGet, Path: "/products/:id", Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *none) (*service.ProductDetail, error) {
			return h.svc.GetProductByID(c.Request.Context(), c.Param("id"))
		},
	})
}
