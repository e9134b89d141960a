package service

import (
	"context"
	"strings"

	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/domain"
	"quartz-storefront/pkg/utils"
	"quartz-storefront/pkg/validate"
)

const (
	msgProductNotFound = "product not found"
	msgProductSlug     = "product with this slug already exists"
	mediaListRule      = "max=30,dive,required,max=1024"
)

type ProductListInput struct {
	domain.Page
	Search     string `form:"search" binding:"max=100"`
	CategoryID string `form:"categoryId" binding:"max=32"`
}

type ProductInput struct {
	Title       string   `json:"title" binding:"required,max=191"`
	Slug        string   `json:"slug" binding:"omitempty,slug,max=191"`
	Description *string  `json:"description" binding:"omitempty,max=10000"`
	CategoryID  string   `json:"categoryId" binding:"required,max=32"`
	IsPremium   bool     `json:"isPremium"`
	Images      []string `json:"images" binding:"omitempty,max=30,dive,required,max=1024"`
	Videos      []string `json:"videos" binding:"omitempty,max=30,dive,required,max=1024"`
}

type ProductUpdate struct {
	Title       *string   `json:"title" binding:"omitempty,max=191"`
	Slug        *string   `json:"slug" binding:"omitempty,slug,max=191"`
	Description *string   `json:"description" binding:"omitempty,max=10000"`
	CategoryID  *string   `json:"categoryId" binding:"omitempty,max=32"`
	IsPremium   *bool     `json:"isPremium"`
	Images      *[]string `json:"images"`
	Videos      *[]string `json:"videos"`
}

type ProductRow struct {
	domain.Product
	Category *domain.CategoryRef `json:"category"`
}

type ProductDetail struct {
	domain.Product
	Category *domain.Category `json:"category"`
}

type CategoryLineage struct {
	domain.CategoryRef
	ParentID *string             `json:"parentId"`
	Parent   *domain.CategoryRef `json:"parent"`
}

type ProductInCategory struct {
	domain.Product
	Category *CategoryLineage `json:"category"`
}

type CategoryProducts struct {
	Category CategoryLineage `json:"category"`
	domain.List[ProductInCategory]
}

func (s *CatalogService) ListProducts(ctx context.Context, in ProductListInput) (domain.List[ProductRow], error) {
	if err := validate.Struct(in); err != nil {
		return domain.List[ProductRow]{}, err
	}
	in.Page = in.Page.Normalize(10)
	f := domain.ProductFilter{Search: in.Search, Offset: in.Page.Offset(), Limit: in.Limit}
	if in.CategoryID != "" {
		f.CategoryIDs = []string{in.CategoryID}
	}
	items, total, err := s.prods.List(ctx, f)
	if err != nil {
		return domain.List[ProductRow]{}, s.storeErr("list products", err, "")
	}
	cats, err := s.cats.FindByIDs(ctx, ids(items, prodCategoryID))
	if err != nil {
		return domain.List[ProductRow]{}, s.storeErr("find product categories", err, "")
	}
	refs := refsByID(cats)
	rows := make([]ProductRow, 0, len(items))
	for _, p := range items {
		row := ProductRow{Product: p}
		if ref, ok := refs[p.CategoryID]; ok {
			row.Category = &ref
		}
		rows = append(rows, row)
	}
	return domain.NewList(rows, in.Page, total), nil
}

func (s *CatalogService) GetProductByID(ctx context.Context, id string) (*ProductDetail, error) {
	p, err := s.prods.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("find product", err, "")
	}
	if p == nil {
		return nil, errs.NotFoundf(msgProductNotFound)
	}
	return s.productDetail(ctx, p)
}

// ListProductsByCategorySlug pages the products of a category and of its
// direct children. Deeper levels do not exist.
func (s *CatalogService) ListProductsByCategorySlug(ctx context.Context, slug string, page domain.Page) (*CategoryProducts, error) {
	page = page.Normalize(10)
	c, err := s.cats.FindBySlug(ctx, slug)
	if err != nil {
		return nil, s.storeErr("find category by slug", err, "")
	}
	if c == nil {
		return nil, errs.NotFoundf(msgCategoryNotFound)
	}
	children, err := s.cats.Children(ctx, []string{c.ID}, false)
	if err != nil {
		return nil, s.storeErr("list subcategories", err, "")
	}
	set := append([]string{c.ID}, ids(children, catID)...)
	items, total, err := s.prods.List(ctx, domain.ProductFilter{CategoryIDs: set, Offset: page.Offset(), Limit: page.Limit})
	if err != nil {
		return nil, s.storeErr("list products", err, "")
	}

	lineage := map[string]*CategoryLineage{}
	self := &CategoryLineage{CategoryRef: c.Ref(), ParentID: c.ParentID}
	if c.ParentID != nil {
		refs, err := s.parentRefs(ctx, []domain.Category{*c})
		if err != nil {
			return nil, err
		}
		if ref, ok := refs[*c.ParentID]; ok {
			self.Parent = &ref
		}
	}
	lineage[c.ID] = self
	selfRef := c.Ref()
	for _, ch := range children {
		lineage[ch.ID] = &CategoryLineage{CategoryRef: ch.Ref(), ParentID: ch.ParentID, Parent: &selfRef}
	}

	rows := make([]ProductInCategory, 0, len(items))
	for _, p := range items {
		rows = append(rows, ProductInCategory{Product: p, Category: lineage[p.CategoryID]})
	}
	return &CategoryProducts{Category: *self, List: domain.NewList(rows, page, total)}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*ProductDetail, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p := domain.Product{
		Title:       strings.TrimSpace(in.Title),
		Slug:        in.Slug,
		Description: trimmed(in.Description),
		CategoryID:  in.CategoryID,
		IsPremium:   in.IsPremium,
		Images:      nonNil(in.Images),
		Videos:      nonNil(in.Videos),
	}
	if p.Title == "" {
		return nil, errs.Validation("title is required")
	}
	if p.Slug == "" {
		if p.Slug = utils.Slugify(p.Title); p.Slug == "" {
			return nil, errs.Validation("slug is required")
		}
	}
	taken, err := s.prods.FindBySlug(ctx, p.Slug)
	if err != nil {
		return nil, s.storeErr("find product by slug", err, "")
	}
	if taken != nil {
		return nil, errs.ConflictMsg(msgProductSlug)
	}
	cat, err := s.cats.FindByID(ctx, p.CategoryID)
	if err != nil {
		return nil, s.storeErr("find category", err, "")
	}
	if cat == nil {
		return nil, errs.NotFoundf(msgCategoryNotFound)
	}

	p.ID = utils.NewID()
	if err := s.prods.Create(ctx, &p); err != nil {
		return nil, s.storeErr("create product", err, msgProductSlug)
	}
	s.invalidate(ctx)
	return &ProductDetail{Product: p, Category: cat}, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductUpdate) (*ProductDetail, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := nonEmpty("title", in.Title); err != nil {
		return nil, err
	}
	if err := nonEmpty("slug", in.Slug); err != nil {
		return nil, err
	}
	if err := nonEmpty("categoryId", in.CategoryID); err != nil {
		return nil, err
	}
	if in.Images != nil {
		if err := validate.Var("images", *in.Images, mediaListRule); err != nil {
			return nil, err
		}
	}
	if in.Videos != nil {
		if err := validate.Var("videos", *in.Videos, mediaListRule); err != nil {
			return nil, err
		}
	}

	cur, err := s.prods.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("find product", err, "")
	}
	if cur == nil {
		return nil, errs.NotFoundf(msgProductNotFound)
	}
	if in.Slug != nil && *in.Slug != cur.Slug {
		taken, err := s.prods.FindBySlug(ctx, *in.Slug)
		if err != nil {
			return nil, s.storeErr("find product by slug", err, "")
		}
		if taken != nil && taken.ID != id {
			return nil, errs.ConflictMsg(msgProductSlug)
		}
	}
	if in.CategoryID != nil && *in.CategoryID != cur.CategoryID {
		cat, err := s.cats.FindByID(ctx, *in.CategoryID)
		if err != nil {
			return nil, s.storeErr("find category", err, "")
		}
		if cat == nil {
			return nil, errs.NotFoundf(msgCategoryNotFound)
		}
	}

	patch := domain.ProductPatch{
		Title:       trimmed(in.Title),
		Slug:        in.Slug,
		Description: trimmed(in.Description),
		CategoryID:  in.CategoryID,
		IsPremium:   in.IsPremium,
		Images:      in.Images,
		Videos:      in.Videos,
	}
	if err := s.prods.Update(ctx, id, patch); err != nil {
		return nil, s.storeErr("update product", err, msgProductSlug)
	}
	s.invalidate(ctx)
	return s.GetProductByID(ctx, id)
}

// DeleteProduct is unconditional; enquiries about it keep their rows with the
// product reference cleared.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	cur, err := s.prods.FindByID(ctx, id)
	if err != nil {
		return s.storeErr("find product", err, "")
	}
	if cur == nil {
		return errs.NotFoundf(msgProductNotFound)
	}
	if err := s.prods.Delete(ctx, id); err != nil {
		return s.storeErr("delete product", err, "")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) productDetail(ctx context.Context, p *domain.Product) (*ProductDetail, error) {
	cat, err := s.cats.FindByID(ctx, p.CategoryID)
	if err != nil {
		return nil, s.storeErr("find category", err, "")
	}
	return &ProductDetail{Product: *p, Category: cat}, nil
}

func prodCategoryID(p *domain.Product) string { return p.CategoryID }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
