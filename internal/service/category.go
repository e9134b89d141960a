package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quartz-storefront/internal/core/cache"
	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/domain"
	"quartz-storefront/pkg/utils"
	"quartz-storefront/pkg/validate"
)

const (
	msgCategoryNotFound = "category not found"
	msgParentNotFound   = "parent category not found"
	msgCategorySlug     = "category with this slug already exists"
	msgSelfParent       = "category cannot be its own parent"
	msgCircular         = "cannot create circular reference"
	msgTooDeep          = "maximum depth exceeded: categories can only be nested two levels deep"
	msgHasChildrenDepth = "maximum depth exceeded: a category with subcategories cannot become a subcategory"
)

type CategoryListInput struct {
	domain.Page
	Search               string `form:"search" binding:"max=100"`
	IncludeSubcategories bool   `form:"includeSubcategories"`
}

type CategoryFlatInput struct {
	domain.Page
	Search string `form:"search" binding:"max=100"`
}

type CategoryInput struct {
	Name        string  `json:"name" binding:"required,max=191"`
	Slug        string  `json:"slug" binding:"omitempty,slug,max=191"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	ImageURL    *string `json:"imageUrl" binding:"omitempty,max=1024"`
	ParentID    *string `json:"parentId" binding:"omitempty,max=32"`
}

// CategoryUpdate is a partial update. An empty parentId detaches the
// category to the main level; an omitted one leaves it alone.
type CategoryUpdate struct {
	Name        *string `json:"name" binding:"omitempty,max=191"`
	Slug        *string `json:"slug" binding:"omitempty,slug,max=191"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	ImageURL    *string `json:"imageUrl" binding:"omitempty,max=1024"`
	ParentID    *string `json:"parentId" binding:"omitempty,max=32"`
}

type CategoryRow struct {
	domain.Category
	Parent        *domain.CategoryRef   `json:"parent"`
	Subcategories []CategoryRow         `json:"subcategories,omitempty"`
	Count         domain.CategoryCounts `json:"_count"`
}

type CategoryDetail struct {
	domain.Category
	Parent        *domain.CategoryRef   `json:"parent"`
	Subcategories []CategoryRow         `json:"subcategories"`
	Products      []domain.Product      `json:"products"`
	Count         domain.CategoryCounts `json:"_count"`
}

// CategorySlugDetail is the storefront category page: the detail plus own
// and subcategory products in one list.
type CategorySlugDetail struct {
	CategoryDetail
	AllProducts []domain.Product `json:"allProducts"`
}

type CategoryOption struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	IsSubcategory bool    `json:"isSubcategory"`
	ParentName    *string `json:"parentName,omitempty"`
}

type CategoryOptions struct {
	Categories []domain.MainCategory `json:"categories"`
	Flat       []CategoryOption      `json:"flatCategories"`
}

// ListCategories pages main categories, optionally with their direct children.
func (s *CatalogService) ListCategories(ctx context.Context, in CategoryListInput) (domain.List[CategoryRow], error) {
	if err := validate.Struct(in); err != nil {
		return domain.List[CategoryRow]{}, err
	}
	in.Page = in.Page.Normalize(10)
	key := s.cached(fmt.Sprintf("categories:%d:%d:%t:%s", in.Page.Page, in.Limit, in.IncludeSubcategories, strings.ToLower(strings.TrimSpace(in.Search))))
	return cache.GetOrLoadJSON(s.loader(), ctx, key, s.ttl, func(ctx context.Context) (domain.List[CategoryRow], error) {
		return s.listCategories(ctx, in)
	})
}

func (s *CatalogService) listCategories(ctx context.Context, in CategoryListInput) (domain.List[CategoryRow], error) {
	mains, total, err := s.cats.List(ctx, domain.CategoryFilter{
		Search: in.Search, OnlyMain: true, Offset: in.Page.Offset(), Limit: in.Limit,
	})
	if err != nil {
		return domain.List[CategoryRow]{}, s.storeErr("list categories", err, "")
	}
	var children []domain.Category
	if in.IncludeSubcategories {
		if children, err = s.cats.Children(ctx, ids(mains, catID), false); err != nil {
			return domain.List[CategoryRow]{}, s.storeErr("list subcategories", err, "")
		}
	}
	all := append(append([]domain.Category{}, mains...), children...)
	counts, err := s.counts(ctx, ids(all, catID))
	if err != nil {
		return domain.List[CategoryRow]{}, err
	}
	byParent := map[string][]CategoryRow{}
	for _, ch := range children {
		ref := refOf(mains, *ch.ParentID)
		byParent[*ch.ParentID] = append(byParent[*ch.ParentID], CategoryRow{Category: ch, Parent: ref, Count: counts[ch.ID]})
	}
	rows := make([]CategoryRow, 0, len(mains))
	for _, m := range mains {
		row := CategoryRow{Category: m, Count: counts[m.ID]}
		if in.IncludeSubcategories {
			row.Subcategories = byParent[m.ID]
			if row.Subcategories == nil {
				row.Subcategories = []CategoryRow{}
			}
		}
		rows = append(rows, row)
	}
	return domain.NewList(rows, in.Page, total), nil
}

// ListAllCategoriesFlat pages main and sub categories together, mains first.
func (s *CatalogService) ListAllCategoriesFlat(ctx context.Context, in CategoryFlatInput) (domain.List[CategoryRow], error) {
	if err := validate.Struct(in); err != nil {
		return domain.List[CategoryRow]{}, err
	}
	in.Page = in.Page.Normalize(50)
	items, total, err := s.cats.List(ctx, domain.CategoryFilter{
		Search: in.Search, MainFirst: true, Offset: in.Page.Offset(), Limit: in.Limit,
	})
	if err != nil {
		return domain.List[CategoryRow]{}, s.storeErr("list flat categories", err, "")
	}
	parents, err := s.parentRefs(ctx, items)
	if err != nil {
		return domain.List[CategoryRow]{}, err
	}
	counts, err := s.counts(ctx, ids(items, catID))
	if err != nil {
		return domain.List[CategoryRow]{}, err
	}
	rows := make([]CategoryRow, 0, len(items))
	for _, c := range items {
		row := CategoryRow{Category: c, Count: counts[c.ID]}
		if c.ParentID != nil {
			if ref, ok := parents[*c.ParentID]; ok {
				row.Parent = &ref
			}
		}
		rows = append(rows, row)
	}
	return domain.NewList(rows, in.Page, total), nil
}

func (s *CatalogService) GetCategoryByID(ctx context.Context, id string) (*CategoryDetail, error) {
	c, err := s.cats.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("find category", err, "")
	}
	if c == nil {
		return nil, errs.NotFoundf(msgCategoryNotFound)
	}
	return s.detail(ctx, c)
}

// GetCategoryBySlug also fills AllProducts: own products first, then the
// children's, each side newest first.
func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*CategorySlugDetail, error) {
	key := s.cached("slug:" + slug)
	return cache.GetOrLoadJSON(s.loader(), ctx, key, s.ttl, func(ctx context.Context) (*CategorySlugDetail, error) {
		c, err := s.cats.FindBySlug(ctx, slug)
		if err != nil {
			return nil, s.storeErr("find category by slug", err, "")
		}
		if c == nil {
			return nil, errs.NotFoundf(msgCategoryNotFound)
		}
		d, err := s.detail(ctx, c)
		if err != nil {
			return nil, err
		}
		childProducts, err := s.prods.InCategories(ctx, ids(d.Subcategories, rowID))
		if err != nil {
			return nil, s.storeErr("list subcategory products", err, "")
		}
		all := append(append(make([]domain.Product, 0, len(d.Products)+len(childProducts)), d.Products...), childProducts...)
		return &CategorySlugDetail{CategoryDetail: *d, AllProducts: all}, nil
	})
}

func rowID(r *CategoryRow) string { return r.ID }

func (s *CatalogService) detail(ctx context.Context, c *domain.Category) (*CategoryDetail, error) {
	d := &CategoryDetail{Category: *c}
	if c.ParentID != nil {
		p, err := s.cats.FindByID(ctx, *c.ParentID)
		if err != nil {
			return nil, s.storeErr("find parent", err, "")
		}
		if p != nil {
			ref := p.Ref()
			d.Parent = &ref
		}
	}
	children, err := s.cats.Children(ctx, []string{c.ID}, false)
	if err != nil {
		return nil, s.storeErr("list subcategories", err, "")
	}
	counts, err := s.counts(ctx, append([]string{c.ID}, ids(children, catID)...))
	if err != nil {
		return nil, err
	}
	d.Count = counts[c.ID]
	self := c.Ref()
	d.Subcategories = make([]CategoryRow, 0, len(children))
	for _, ch := range children {
		d.Subcategories = append(d.Subcategories, CategoryRow{Category: ch, Parent: &self, Count: counts[ch.ID]})
	}
	if d.Products, err = s.prods.InCategories(ctx, []string{c.ID}); err != nil {
		return nil, s.storeErr("list category products", err, "")
	}
	if d.Products == nil {
		d.Products = []domain.Product{}
	}
	return d, nil
}

// GetMainCategories lists main categories by name for dropdowns.
func (s *CatalogService) GetMainCategories(ctx context.Context) ([]domain.CategoryRef, error) {
	return cache.GetOrLoadJSON(s.loader(), ctx, s.cached("main"), s.ttl, func(ctx context.Context) ([]domain.CategoryRef, error) {
		mains, err := s.cats.MainByName(ctx)
		if err != nil {
			return nil, s.storeErr("list main categories", err, "")
		}
		out := make([]domain.CategoryRef, 0, len(mains))
		for i := range mains {
			out = append(out, mains[i].Ref())
		}
		return out, nil
	})
}

// CategoryOptions is the tree plus flattened list used by the product form.
func (s *CatalogService) CategoryOptions(ctx context.Context) (*CategoryOptions, error) {
	mains, err := s.cats.MainByName(ctx)
	if err != nil {
		return nil, s.storeErr("list main categories", err, "")
	}
	children, err := s.cats.Children(ctx, ids(mains, catID), true)
	if err != nil {
		return nil, s.storeErr("list subcategories", err, "")
	}
	tree := domain.BuildTree(append(append([]domain.Category{}, mains...), children...))
	out := &CategoryOptions{Categories: tree, Flat: make([]CategoryOption, 0, len(mains)+len(children))}
	for _, m := range tree {
		out.Flat = append(out.Flat, CategoryOption{ID: m.ID, Name: m.Name, Slug: m.Slug})
		for _, sub := range m.Children {
			parentName := m.Name
			out.Flat = append(out.Flat, CategoryOption{
				ID: sub.ID, Name: sub.Name, Slug: sub.Slug, IsSubcategory: true, ParentName: &parentName,
			})
		}
	}
	return out, nil
}

// Navigation is the storefront menu: every main category, newest first, with
// its children.
func (s *CatalogService) Navigation(ctx context.Context) ([]domain.MainCategory, error) {
	return cache.GetOrLoadJSON(s.loader(), ctx, s.cached("nav"), s.ttl, func(ctx context.Context) ([]domain.MainCategory, error) {
		mains, _, err := s.cats.List(ctx, domain.CategoryFilter{OnlyMain: true})
		if err != nil {
			return nil, s.storeErr("list main categories", err, "")
		}
		children, err := s.cats.Children(ctx, ids(mains, catID), false)
		if err != nil {
			return nil, s.storeErr("list subcategories", err, "")
		}
		return domain.BuildTree(append(append([]domain.Category{}, mains...), children...)), nil
	})
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*CategoryRow, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c := domain.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        in.Slug,
		Description: trimmed(in.Description),
		ImageURL:    trimmed(in.ImageURL),
	}
	if c.Name == "" {
		return nil, errs.Validation("name is required")
	}
	if c.Slug == "" {
		if c.Slug = utils.Slugify(c.Name); c.Slug == "" {
			return nil, errs.Validation("slug is required")
		}
	}
	taken, err := s.cats.FindBySlug(ctx, c.Slug)
	if err != nil {
		return nil, s.storeErr("find category by slug", err, "")
	}
	if taken != nil {
		return nil, errs.ConflictMsg(msgCategorySlug)
	}

	row := &CategoryRow{}
	if in.ParentID != nil && *in.ParentID != "" {
		parent, err := s.cats.FindByID(ctx, *in.ParentID)
		if err != nil {
			return nil, s.storeErr("find parent", err, "")
		}
		if parent == nil {
			return nil, errs.NotFoundf(msgParentNotFound)
		}
		sub, err := domain.NewSub(c, *parent)
		if err != nil {
			return nil, placementErr(err)
		}
		c = sub.Category
		row.Parent = &sub.Parent
	}

	c.ID = utils.NewID()
	if err := s.cats.Create(ctx, &c); err != nil {
		return nil, s.storeErr("create category", err, msgCategorySlug)
	}
	s.invalidate(ctx)
	row.Category = c
	return row, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryUpdate) (*CategoryRow, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := nonEmpty("name", in.Name); err != nil {
		return nil, err
	}
	if err := nonEmpty("slug", in.Slug); err != nil {
		return nil, err
	}
	cur, err := s.cats.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("find category", err, "")
	}
	if cur == nil {
		return nil, errs.NotFoundf(msgCategoryNotFound)
	}

	patch := domain.CategoryPatch{
		Name:        trimmed(in.Name),
		Slug:        in.Slug,
		Description: trimmed(in.Description),
		ImageURL:    trimmed(in.ImageURL),
	}
	if in.Slug != nil && *in.Slug != cur.Slug {
		taken, err := s.cats.FindBySlug(ctx, *in.Slug)
		if err != nil {
			return nil, s.storeErr("find category by slug", err, "")
		}
		if taken != nil && taken.ID != id {
			return nil, errs.ConflictMsg(msgCategorySlug)
		}
	}

	var parentRef *domain.CategoryRef
	switch {
	case in.ParentID == nil:
		if cur.ParentID != nil {
			p, err := s.cats.FindByID(ctx, *cur.ParentID)
			if err != nil {
				return nil, s.storeErr("find parent", err, "")
			}
			if p != nil {
				ref := p.Ref()
				parentRef = &ref
			}
		}
	case *in.ParentID == "":
		patch.ClearParent = cur.ParentID != nil
	default:
		if *in.ParentID == id {
			return nil, errs.Invalid(msgSelfParent)
		}
		parent, err := s.cats.FindByID(ctx, *in.ParentID)
		if err != nil {
			return nil, s.storeErr("find parent", err, "")
		}
		if parent == nil {
			return nil, errs.NotFoundf(msgParentNotFound)
		}
		sub, err := domain.NewSub(*cur, *parent)
		if err != nil {
			return nil, placementErr(err)
		}
		if cur.ParentID == nil {
			n, err := s.cats.CountChildren(ctx, []string{id})
			if err != nil {
				return nil, s.storeErr("count subcategories", err, "")
			}
			if n[id] > 0 {
				return nil, errs.Invalid(msgHasChildrenDepth)
			}
		}
		patch.ParentID = sub.ParentID
		parentRef = &sub.Parent
	}

	if !patch.Empty() {
		if err := s.cats.Update(ctx, id, patch); err != nil {
			return nil, s.storeErr("update category", err, msgCategorySlug)
		}
		s.invalidate(ctx)
	}
	updated, err := s.cats.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("find category", err, "")
	}
	if updated == nil {
		return nil, errs.NotFoundf(msgCategoryNotFound)
	}
	counts, err := s.counts(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return &CategoryRow{Category: *updated, Parent: parentRef, Count: counts[id]}, nil
}

// DeleteCategory refuses while the category still owns products or
// subcategories. Products are checked first.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	cur, err := s.cats.FindByID(ctx, id)
	if err != nil {
		return s.storeErr("find category", err, "")
	}
	if cur == nil {
		return errs.NotFoundf(msgCategoryNotFound)
	}
	counts, err := s.counts(ctx, []string{id})
	if err != nil {
		return err
	}
	if counts[id].Products > 0 {
		return errs.ConflictMsg("cannot delete category with products, remove or reassign them first")
	}
	if counts[id].Subcategories > 0 {
		return errs.ConflictMsg("cannot delete category with subcategories, delete them first")
	}
	if err := s.cats.Delete(ctx, id); err != nil {
		return s.storeErr("delete category", err, "")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) counts(ctx context.Context, catIDs []string) (map[string]domain.CategoryCounts, error) {
	out := make(map[string]domain.CategoryCounts, len(catIDs))
	if len(catIDs) == 0 {
		return out, nil
	}
	products, err := s.cats.CountProducts(ctx, catIDs)
	if err != nil {
		return nil, s.storeErr("count products", err, "")
	}
	children, err := s.cats.CountChildren(ctx, catIDs)
	if err != nil {
		return nil, s.storeErr("count subcategories", err, "")
	}
	for _, id := range catIDs {
		out[id] = domain.CategoryCounts{Products: products[id], Subcategories: children[id]}
	}
	return out, nil
}

func (s *CatalogService) parentRefs(ctx context.Context, cs []domain.Category) (map[string]domain.CategoryRef, error) {
	pids := ids(cs, func(c *domain.Category) string {
		if c.ParentID == nil {
			return ""
		}
		return *c.ParentID
	})
	if len(pids) == 0 {
		return map[string]domain.CategoryRef{}, nil
	}
	parents, err := s.cats.FindByIDs(ctx, pids)
	if err != nil {
		return nil, s.storeErr("find parents", err, "")
	}
	return refsByID(parents), nil
}

func placementErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrSelfParent):
		return errs.Invalid(msgSelfParent)
	case errors.Is(err, domain.ErrCircular):
		return errs.Invalid(msgCircular)
	case errors.Is(err, domain.ErrTooDeep):
		return errs.Invalid(msgTooDeep)
	}
	return errs.Invalid(err.Error())
}

func catID(c *domain.Category) string { return c.ID }

func refOf(cs []domain.Category, id string) *domain.CategoryRef {
	for i := range cs {
		if cs[i].ID == id {
			ref := cs[i].Ref()
			return &ref
		}
	}
	return nil
}
