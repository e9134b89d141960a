package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quartz-storefront/internal/core/cache"
	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/domain"
)

func strp(s string) *string { return &s }

type catalogFixture struct {
	store *memStore
	cache *fakeCache
	svc   *CatalogService
	inq   *InquiryService
}

func newCatalog(t *testing.T) *catalogFixture {
	t.Helper()
	st := newMemStore()
	c := newFakeCache()
	return &catalogFixture{
		store: st,
		cache: c,
		svc:   NewCatalogService(memCats{st}, memProds{st}, c, time.Minute, nil),
		inq:   NewInquiryService(memContacts{st}, memEnquiries{st}, memProds{st}, memCats{st}, nil),
	}
}

func (f *catalogFixture) category(t *testing.T, name, slug string, parent *string) *CategoryRow {
	t.Helper()
	row, err := f.svc.CreateCategory(context.Background(), CategoryInput{Name: name, Slug: slug, ParentID: parent})
	require.NoError(t, err)
	return row
}

func (f *catalogFixture) product(t *testing.T, title, slug, categoryID string) *ProductDetail {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), ProductInput{Title: title, Slug: slug, CategoryID: categoryID, Images: []string{"https://cdn/x.jpg"}})
	require.NoError(t, err)
	return p
}

func TestCreateCategory(t *testing.T) {
	f := newCatalog(t)
	ctx := context.Background()

	quartz := f.category(t, "Quartz", "quartz", nil)
	assert.Nil(t, quartz.ParentID)
	assert.Nil(t, quartz.Parent)
	assert.Zero(t, quartz.Count.Products)

	calacatta := f.category(t, "Calacatta", "calacatta", &quartz.ID)
	require.NotNil(t, calacatta.Parent)
	assert.Equal(t, "quartz", calacatta.Parent.Slug)
	assert.Equal(t, quartz.ID, *calacatta.ParentID)

	t.Run("duplicate slug", func(t *testing.T) {
		before := f.store.writes
		_, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Quartz 2", Slug: "quartz"})
		assert.True(t, errs.Is(err, errs.Conflict))
		assert.Equal(t, before, f.store.writes)
		n := 0
		for _, c := range f.store.cats {
			if c.Slug == "quartz" {
				n++
			}
		}
		assert.Equal(t, 1, n)
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Onyx", Slug: "onyx", ParentID: strp("nope")})
		assert.True(t, errs.Is(err, errs.NotFound))
	})

	t.Run("third level rejected", func(t *testing.T) {
		_, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Gold", Slug: "gold", ParentID: &calacatta.ID})
		assert.True(t, errs.Is(err, errs.InvalidOperation))
		assert.Contains(t, errs.Message(err, ""), "maximum depth")
	})

	t.Run("slug derived from name", func(t *testing.T) {
		row, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Snow White Marble"})
		require.NoError(t, err)
		assert.Equal(t, "snow-white-marble", row.Slug)
	})

	t.Run("bad slug", func(t *testing.T) {
		_, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "X", Slug: "Bad Slug"})
		assert.True(t, errs.Is(err, errs.ValidationFailed))
	})

	t.Run("empty parent means main", func(t *testing.T) {
		row, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Granite", Slug: "granite", ParentID: strp("")})
		require.NoError(t, err)
		assert.Nil(t, row.ParentID)
	})
}

func TestCreateCategoryRaceSurfacesConflict(t *testing.T) {
	f := newCatalog(t)
	// the slug check passes but the insert hits the unique index
	f.svc.cats = raceCats{memCats{f.store}}
	_, err := f.svc.CreateCategory(context.Background(), CategoryInput{Name: "Quartz", Slug: "quartz"})
	assert.True(t, errs.Is(err, errs.Conflict))
	assert.Equal(t, msgCategorySlug, errs.Message(err, ""))
}

type raceCats struct{ memCats }

func (r raceCats) Create(ctx context.Context, c *domain.Category) error {
	dup := *c
	dup.ID = "other"
	_ = r.memCats.Create(ctx, &dup)
	return r.memCats.Create(ctx, c)
}

func TestUpdateCategoryHierarchyRules(t *testing.T) {
	f := newCatalog(t)
	ctx := context.Background()
	quartz := f.category(t, "Quartz", "quartz", nil)
	calacatta := f.category(t, "Calacatta", "calacatta", &quartz.ID)
	granite := f.category(t, "Granite", "granite", nil)

	t.Run("self parent", func(t *testing.T) {
		before := f.store.writes
		_, err := f.svc.UpdateCategory(ctx, calacatta.ID, CategoryUpdate{ParentID: &calacatta.ID})
		assert.True(t, errs.Is(err, errs.InvalidOperation))
		assert.Equal(t, msgSelfParent, errs.Message(err, ""))
		assert.Equal(t, before, f.store.writes)
	})

	t.Run("circular", func(t *testing.T) {
		_, err := f.svc.UpdateCategory(ctx, quartz.ID, CategoryUpdate{ParentID: &calacatta.ID})
		assert.True(t, errs.Is(err, errs.InvalidOperation))
		assert.Equal(t, msgCircular, errs.Message(err, ""))
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := f.svc.UpdateCategory(ctx, calacatta.ID, CategoryUpdate{ParentID: strp("ghost")})
		assert.True(t, errs.Is(err, errs.NotFound))
	})

	t.Run("missing category", func(t *testing.T) {
		_, err := f.svc.UpdateCategory(ctx, "ghost", CategoryUpdate{Name: strp("x")})
		assert.True(t, errs.Is(err, errs.NotFound))
	})

	t.Run("parent with children cannot be nested", func(t *testing.T) {
		_, err := f.svc.UpdateCategory(ctx, quartz.ID, CategoryUpdate{ParentID: &granite.ID})
		assert.True(t, errs.Is(err, errs.InvalidOperation))
		assert.Contains(t, errs.Message(err, ""), "maximum depth")
	})

	t.Run("under a subcategory", func(t *testing.T) {
		_, err := f.svc.UpdateCategory(ctx, granite.ID, CategoryUpdate{ParentID: &calacatta.ID})
		assert.True(t, errs.Is(err, errs.InvalidOperation))
	})

	t.Run("move subcategory", func(t *testing.T) {
		row, err := f.svc.UpdateCategory(ctx, calacatta.ID, CategoryUpdate{ParentID: &granite.ID})
		require.NoError(t, err)
		assert.Equal(t, granite.ID, *row.ParentID)
		assert.Equal(t, "granite", row.Parent.Slug)
	})

	t.Run("detach", func(t *testing.T) {
		row, err := f.svc.UpdateCategory(ctx, calacatta.ID, CategoryUpdate{ParentID: strp("")})
		require.NoError(t, err)
		assert.Nil(t, row.ParentID)
		assert.Nil(t, row.Parent)
	})

	t.Run("slug conflict", func(t *testing.T) {
		_, err := f.svc.UpdateCategory(ctx, granite.ID, CategoryUpdate{Slug: strp("quartz")})
		assert.True(t, errs.Is(err, errs.Conflict))
	})

	t.Run("same slug is fine", func(t *testing.T) {
		row, err := f.svc.UpdateCategory(ctx, granite.ID, CategoryUpdate{Slug: strp("granite"), Name: strp("Granite Stone")})
		require.NoError(t, err)
		assert.Equal(t, "Granite Stone", row.Name)
		assert.Equal(t, "granite", row.Slug)
	})

	t.Run("partial keeps other fields", func(t *testing.T) {
		_, err := f.svc.UpdateCategory(ctx, granite.ID, CategoryUpdate{Description: strp("Hard stone")})
		require.NoError(t, err)
		got := f.store.cats[granite.ID]
		assert.Equal(t, "Granite Stone", got.Name)
		assert.Equal(t, "Hard stone", *got.Description)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := f.svc.UpdateCategory(ctx, granite.ID, CategoryUpdate{Name: strp("  ")})
		assert.True(t, errs.Is(err, errs.ValidationFailed))
	})
}

func TestDeleteCategory(t *testing.T) {
	f := newCatalog(t)
	ctx := context.Background()
	quartz := f.category(t, "Quartz", "quartz", nil)
	calacatta := f.category(t, "Calacatta", "calacatta", &quartz.ID)
	f.product(t, "Calacatta Gold Slab", "calacatta-gold-slab", calacatta.ID)

	err := f.svc.DeleteCategory(ctx, quartz.ID)
	assert.True(t, errs.Is(err, errs.Conflict))
	assert.Contains(t, errs.Message(err, ""), "subcategories")
	assert.Contains(t, f.store.cats, calacatta.ID)

	err = f.svc.DeleteCategory(ctx, calacatta.ID)
	assert.True(t, errs.Is(err, errs.Conflict))
	assert.Contains(t, errs.Message(err, ""), "products")
	assert.Len(t, f.store.prods, 1)

	assert.True(t, errs.Is(f.svc.DeleteCategory(ctx, "ghost"), errs.NotFound))

	empty := f.category(t, "Onyx", "onyx", nil)
	require.NoError(t, f.svc.DeleteCategory(ctx, empty.ID))
	assert.NotContains(t, f.store.cats, empty.ID)
}

func TestDeleteCategoryChecksProductsFirst(t *testing.T) {
	f := newCatalog(t)
	quartz := f.category(t, "Quartz", "quartz", nil)
	f.category(t, "Calacatta", "calacatta", &quartz.ID)
	f.product(t, "Quartz Tile", "quartz-tile", quartz.ID)

	err := f.svc.DeleteCategory(context.Background(), quartz.ID)
	assert.True(t, errs.Is(err, errs.Conflict))
	assert.Contains(t, errs.Message(err, ""), "products")
}

func TestListCategories(t *testing.T) {
	f := newCatalog(t)
	ctx := context.Background()
	quartz := f.category(t, "Quartz", "quartz", nil)
	f.category(t, "Calacatta", "calacatta", &quartz.ID)
	f.category(t, "Marble", "marble", nil)

	list, err := f.svc.ListCategories(ctx, CategoryListInput{Search: "quartz"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Quartz", list.Items[0].Name)
	assert.Nil(t, list.Items[0].Subcategories)

	list, err = f.svc.ListCategories(ctx, CategoryListInput{Search: "granite"})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.NotNil(t, list.Items)
	assert.Zero(t, list.Pagination.TotalCount)

	list, err = f.svc.ListCategories(ctx, CategoryListInput{IncludeSubcategories: true})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "marble", list.Items[0].Slug, "newest first")
	assert.Empty(t, list.Items[0].Subcategories)
	require.Len(t, list.Items[1].Subcategories, 1)
	assert.Equal(t, "calacatta", list.Items[1].Subcategories[0].Slug)
	assert.EqualValues(t, 1, list.Items[1].Count.Subcategories)
	assert.Equal(t, 1, list.Pagination.Page)
	assert.Equal(t, 10, list.Pagination.Limit)
}

func TestListAllCategoriesFlat(t *testing.T) {
	f := newCatalog(t)
	quartz := f.category(t, "Quartz", "quartz", nil)
	f.category(t, "Calacatta", "calacatta", &quartz.ID)
	f.category(t, "Marble", "marble", nil)

	list, err := f.svc.ListAllCategoriesFlat(context.Background(), CategoryFlatInput{})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Equal(t, 50, list.Pagination.Limit)
	assert.Nil(t, list.Items[0].ParentID)
	assert.Nil(t, list.Items[1].ParentID)
	require.NotNil(t, list.Items[2].Parent)
	assert.Equal(t, domain.CategoryRef{ID: quartz.ID, Name: "Quartz", Slug: "quartz"}, *list.Items[2].Parent)
}

func TestPaginationInvariant(t *testing.T) {
	f := newCatalog(t)
	for i := 0; i < 23; i++ {
		f.category(t, "Cat", "cat-"+string(rune('a'+i)), nil)
	}
	for _, limit := range []int{1, 5, 7, 10, 23, 100} {
		for page := 1; page <= 4; page++ {
			list, err := f.svc.ListAllCategoriesFlat(context.Background(), CategoryFlatInput{Page: domain.Page{Page: page, Limit: limit}})
			require.NoError(t, err)
			p := list.Pagination
			assert.EqualValues(t, math.Ceil(float64(p.TotalCount)/float64(p.Limit)), p.TotalPages)
			assert.LessOrEqual(t, len(list.Items), p.Limit)
		}
	}
	list, err := f.svc.ListAllCategoriesFlat(context.Background(), CategoryFlatInput{Page: domain.Page{Page: 3, Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, list.Items, 3)
}

func TestGetCategoryBySlugAllProducts(t *testing.T) {
	f := newCatalog(t)
	ctx := context.Background()
	quartz := f.category(t, "Quartz", "quartz", nil)
	a := f.category(t, "Calacatta", "calacatta", &quartz.ID)
	b := f.category(t, "Statuario", "statuario", &quartz.ID)
	p0 := f.product(t, "P0", "p0", quartz.ID)
	p1 := f.product(t, "P1", "p1", a.ID)
	p2 := f.product(t, "P2", "p2", b.ID)

	d, err := f.svc.GetCategoryBySlug(ctx, "quartz")
	require.NoError(t, err)
	require.Len(t, d.AllProducts, 3)
	assert.Equal(t, p0.ID, d.AllProducts[0].ID)
	assert.ElementsMatch(t, []string{p1.ID, p2.ID}, []string{d.AllProducts[1].ID, d.AllProducts[2].ID})
	assert.Len(t, d.Products, 1)
	assert.Len(t, d.Subcategories, 2)
	assert.EqualValues(t, 2, d.Count.Subcategories)

	byID, err := f.svc.GetCategoryByID(ctx, a.ID)
	require.NoError(t, err)
	raw, err := json.Marshal(byID)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "allProducts")
	require.NotNil(t, byID.Parent)
	assert.Equal(t, "quartz", byID.Parent.Slug)

	f.category(t, "Onyx", "onyx", nil)
	empty, err := f.svc.GetCategoryBySlug(ctx, "onyx")
	require.NoError(t, err)
	raw, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"allProducts":[]`)

	_, err = f.svc.GetCategoryBySlug(ctx, "nope")
	assert.True(t, errs.Is(err, errs.NotFound))
	_, err = f.svc.GetCategoryByID(ctx, "nope")
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestListProductsByCategorySlug(t *testing.T) {
	f := newCatalog(t)
	ctx := context.Background()
	quartz := f.category(t, "Quartz", "quartz", nil)
	child := f.category(t, "Calacatta", "calacatta", &quartz.ID)
	other := f.category(t, "Granite", "granite", nil)
	own := f.product(t, "Own", "own", quartz.ID)
	sub := f.product(t, "Sub", "sub", child.ID)
	f.product(t, "Other", "other", other.ID)

	// a grandchild only reachable by writing around the service
	f.store.cats["gc"] = domain.Category{ID: "gc", Name: "Deep", Slug: "deep", ParentID: &child.ID}
	f.store.prods["deep"] = domain.Product{ID: "deep", Title: "Deep", Slug: "deep", CategoryID: "gc"}

	res, err := f.svc.ListProductsByCategorySlug(ctx, "quartz", domain.Page{})
	require.NoError(t, err)
	got := map[string]string{}
	for _, p := range res.Items {
		got[p.ID] = p.CategoryID
	}
	assert.Equal(t, map[string]string{own.ID: quartz.ID, sub.ID: child.ID}, got)
	assert.EqualValues(t, 2, res.Pagination.TotalCount)
	assert.Equal(t, "quartz", res.Category.Slug)
	for _, p := range res.Items {
		if p.ID == sub.ID {
			require.NotNil(t, p.Category.Parent)
			assert.Equal(t, "quartz", p.Category.Parent.Slug)
		}
	}

	_, err = f.svc.ListProductsByCategorySlug(ctx, "nope", domain.Page{})
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestProductLifecycle(t *testing.T) {
	f := newCatalog(t)
	ctx := context.Background()
	quartz := f.category(t, "Quartz", "quartz", nil)
	granite := f.category(t, "Granite", "granite", nil)

	p, err := f.svc.CreateProduct(ctx, ProductInput{Title: "Calacatta Gold Slab", CategoryID: quartz.ID, IsPremium: true})
	require.NoError(t, err)
	assert.Equal(t, "calacatta-gold-slab", p.Slug)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Quartz", p.Category.Name)
	assert.NotNil(t, p.Images)

	_, err = f.svc.CreateProduct(ctx, ProductInput{Title: "Dup", Slug: "calacatta-gold-slab", CategoryID: quartz.ID})
	assert.True(t, errs.Is(err, errs.Conflict))

	_, err = f.svc.CreateProduct(ctx, ProductInput{Title: "Orphan", CategoryID: "ghost"})
	assert.True(t, errs.Is(err, errs.NotFound))

	_, err = f.svc.CreateProduct(ctx, ProductInput{Title: "No category"})
	assert.True(t, errs.Is(err, errs.ValidationFailed))

	up, err := f.svc.UpdateProduct(ctx, p.ID, ProductUpdate{CategoryID: &granite.ID, IsPremium: new(bool)})
	require.NoError(t, err)
	assert.Equal(t, "Granite", up.Category.Name)
	assert.False(t, up.IsPremium)
	assert.Equal(t, "Calacatta Gold Slab", up.Title)

	_, err = f.svc.UpdateProduct(ctx, p.ID, ProductUpdate{CategoryID: strp("ghost")})
	assert.True(t, errs.Is(err, errs.NotFound))

	_, err = f.svc.UpdateProduct(ctx, p.ID, ProductUpdate{Images: &[]string{""}})
	assert.True(t, errs.Is(err, errs.ValidationFailed))

	_, err = f.svc.UpdateProduct(ctx, "ghost", ProductUpdate{Title: strp("x")})
	assert.True(t, errs.Is(err, errs.NotFound))

	list, err := f.svc.ListProducts(ctx, ProductListInput{CategoryID: granite.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "granite", list.Items[0].Category.Slug)

	require.NoError(t, f.svc.DeleteProduct(ctx, p.ID))
	assert.True(t, errs.Is(f.svc.DeleteProduct(ctx, p.ID), errs.NotFound))
	_, err = f.svc.GetProductByID(ctx, p.ID)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestMutationsInvalidateCache(t *testing.T) {
	f := newCatalog(t)
	ctx := context.Background()
	f.category(t, "Quartz", "quartz", nil)

	mains, err := f.svc.GetMainCategories(ctx)
	require.NoError(t, err)
	require.Len(t, mains, 1)

	f.category(t, "Granite", "granite", nil)
	mains, err = f.svc.GetMainCategories(ctx)
	require.NoError(t, err)
	require.Len(t, mains, 2, "create must drop cached listing")
	assert.Equal(t, "Granite", mains[0].Name)

	nav, err := f.svc.Navigation(ctx)
	require.NoError(t, err)
	assert.Len(t, nav, 2)

	before := f.cache.invalidated
	_, err = f.svc.CreateCategory(ctx, CategoryInput{Name: "Quartz", Slug: "quartz"})
	require.Error(t, err)
	assert.Equal(t, before, f.cache.invalidated, "failed writes leave the cache alone")
}

// gatedCats parks the first List call until release is closed.
type gatedCats struct {
	memCats
	armed   *atomic.Bool
	started chan struct{}
	release chan struct{}
}

func (r gatedCats) List(ctx context.Context, f domain.CategoryFilter) ([]domain.Category, int64, error) {
	out, total, err := r.memCats.List(ctx, f)
	if r.armed.CompareAndSwap(true, false) {
		close(r.started)
		<-r.release
	}
	return out, total, err
}

func TestMutationDuringCachedReadStaysFresh(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	st := newMemStore()
	cats := gatedCats{memCats: memCats{st}, armed: &atomic.Bool{}, started: make(chan struct{}), release: make(chan struct{})}
	svc := NewCatalogService(cats, memProds{st}, rc, time.Minute, nil)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Quartz", Slug: "quartz"})
	require.NoError(t, err)

	cats.armed.Store(true)
	stale := make(chan domain.List[CategoryRow], 1)
	go func() {
		l, err := svc.ListCategories(ctx, CategoryListInput{})
		assert.NoError(t, err)
		stale <- l
	}()
	<-cats.started

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Granite", Slug: "granite"})
	require.NoError(t, err)
	close(cats.release)
	assert.Len(t, (<-stale).Items, 1)

	list, err := svc.ListCategories(ctx, CategoryListInput{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2, "a read after the mutation returned must see it")
	assert.Equal(t, "Granite", list.Items[0].Name)
}

func TestCategoryOptions(t *testing.T) {
	f := newCatalog(t)
	q := f.category(t, "Quartz", "quartz", nil)
	f.category(t, "Statuario", "statuario", &q.ID)
	f.category(t, "Calacatta", "calacatta", &q.ID)
	f.category(t, "Granite", "granite", nil)

	opts, err := f.svc.CategoryOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, opts.Categories, 2)
	assert.Equal(t, "Granite", opts.Categories[0].Name)
	require.Len(t, opts.Categories[1].Children, 2)
	assert.Equal(t, "Calacatta", opts.Categories[1].Children[0].Name)

	require.Len(t, opts.Flat, 4)
	assert.False(t, opts.Flat[0].IsSubcategory)
	assert.True(t, opts.Flat[2].IsSubcategory)
	assert.Equal(t, "Quartz", *opts.Flat[2].ParentName)
}

func TestStoreFailureIsUpstream(t *testing.T) {
	f := newCatalog(t)
	f.store.fail = errors.New("connection refused")
	_, err := f.svc.ListCategories(context.Background(), CategoryListInput{})
	assert.True(t, errs.Is(err, errs.UpstreamFailure))
	assert.Equal(t, "store unavailable", errs.Message(err, ""))
}

func TestNilCacheReadsThrough(t *testing.T) {
	st := newMemStore()
	svc := NewCatalogService(memCats{st}, memProds{st}, nil, 0, nil)
	_, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Quartz", Slug: "quartz"})
	require.NoError(t, err)
	mains, err := svc.GetMainCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, mains, 1)
}
