package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"quartz-storefront/internal/domain"
)

// memStore backs the fake repositories below. It mimics the unique slug and
// email constraints of the real schema.
type memStore struct {
	mu        sync.Mutex
	clock     time.Time
	cats      map[string]domain.Category
	prods     map[string]domain.Product
	contacts  map[string]domain.Contact
	enquiries map[string]domain.Enquiry
	users     map[string]domain.User
	writes    int
	fail      error
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		cats:      map[string]domain.Category{},
		prods:     map[string]domain.Product{},
		contacts:  map[string]domain.Contact{},
		enquiries: map[string]domain.Enquiry{},
		users:     map[string]domain.User{},
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) lock() (func(), error) {
	m.mu.Lock()
	if m.fail != nil {
		m.mu.Unlock()
		return func() {}, m.fail
	}
	return m.mu.Unlock, nil
}

func contains(hay *string, pat string) bool {
	return hay != nil && strings.Contains(strings.ToLower(*hay), pat)
}

func matches(term string, fields ...*string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if contains(f, term) {
			return true
		}
	}
	return false
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func newestFirst[T any](items []T, at func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]).After(at(items[j])) })
}

func in(id string, set []string) bool {
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}

// ---- categories ----

type memCats struct{ *memStore }

func (r memCats) Create(_ context.Context, c *domain.Category) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for _, x := range r.cats {
		if x.Slug == c.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	c.CreatedAt = r.tick()
	c.UpdatedAt = c.CreatedAt
	r.cats[c.ID] = *c
	r.writes++
	return nil
}

func (r memCats) Update(_ context.Context, id string, p domain.CategoryPatch) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	c := r.cats[id]
	if p.Slug != nil {
		for _, x := range r.cats {
			if x.ID != id && x.Slug == *p.Slug {
				return gorm.ErrDuplicatedKey
			}
		}
		c.Slug = *p.Slug
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.ImageURL != nil {
		c.ImageURL = p.ImageURL
	}
	if p.ClearParent {
		c.ParentID = nil
	} else if p.ParentID != nil {
		c.ParentID = p.ParentID
	}
	c.UpdatedAt = r.tick()
	r.cats[id] = c
	r.writes++
	return nil
}

func (r memCats) Delete(_ context.Context, id string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	delete(r.cats, id)
	r.writes++
	return nil
}

func (r memCats) FindByID(_ context.Context, id string) (*domain.Category, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	if c, ok := r.cats[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r memCats) FindBySlug(_ context.Context, slug string) (*domain.Category, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, c := range r.cats {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, nil
}

func (r memCats) FindByIDs(_ context.Context, ids []string) ([]domain.Category, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.Category
	for _, c := range r.cats {
		if in(c.ID, ids) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCats) List(_ context.Context, f domain.CategoryFilter) ([]domain.Category, int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, 0, err
	}
	var out []domain.Category
	for _, c := range r.cats {
		c := c
		if f.OnlyMain && c.ParentID != nil {
			continue
		}
		if !matches(f.Search, &c.Name, &c.Slug, c.Description) {
			continue
		}
		out = append(out, c)
	}
	newestFirst(out, func(c domain.Category) time.Time { return c.CreatedAt })
	if f.MainFirst {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ParentID == nil && out[j].ParentID != nil })
	}
	return window(out, f.Offset, f.Limit), int64(len(out)), nil
}

func (r memCats) Children(_ context.Context, parentIDs []string, byName bool) ([]domain.Category, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.Category
	for _, c := range r.cats {
		if c.ParentID != nil && in(*c.ParentID, parentIDs) {
			out = append(out, c)
		}
	}
	if byName {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	} else {
		newestFirst(out, func(c domain.Category) time.Time { return c.CreatedAt })
	}
	return out, nil
}

func (r memCats) MainByName(_ context.Context) ([]domain.Category, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.Category
	for _, c := range r.cats {
		if c.ParentID == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCats) CountProducts(_ context.Context, ids []string) (map[string]int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for _, p := range r.prods {
		if in(p.CategoryID, ids) {
			out[p.CategoryID]++
		}
	}
	return out, nil
}

func (r memCats) CountChildren(_ context.Context, ids []string) (map[string]int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for _, c := range r.cats {
		if c.ParentID != nil && in(*c.ParentID, ids) {
			out[*c.ParentID]++
		}
	}
	return out, nil
}

func (r memCats) Count(_ context.Context) (int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return 0, err
	}
	return int64(len(r.cats)), nil
}

// ---- products ----

type memProds struct{ *memStore }

func (r memProds) Create(_ context.Context, p *domain.Product) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for _, x := range r.prods {
		if x.Slug == p.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	p.CreatedAt = r.tick()
	p.UpdatedAt = p.CreatedAt
	r.prods[p.ID] = *p
	r.writes++
	return nil
}

func (r memProds) Update(_ context.Context, id string, p domain.ProductPatch) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	cur := r.prods[id]
	if p.Slug != nil {
		for _, x := range r.prods {
			if x.ID != id && x.Slug == *p.Slug {
				return gorm.ErrDuplicatedKey
			}
		}
		cur.Slug = *p.Slug
	}
	if p.Title != nil {
		cur.Title = *p.Title
	}
	if p.Description != nil {
		cur.Description = p.Description
	}
	if p.CategoryID != nil {
		cur.CategoryID = *p.CategoryID
	}
	if p.IsPremium != nil {
		cur.IsPremium = *p.IsPremium
	}
	if p.Images != nil {
		cur.Images = *p.Images
	}
	if p.Videos != nil {
		cur.Videos = *p.Videos
	}
	cur.UpdatedAt = r.tick()
	r.prods[id] = cur
	r.writes++
	return nil
}

func (r memProds) Delete(_ context.Context, id string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for k, e := range r.enquiries {
		if e.ProductID != nil && *e.ProductID == id {
			e.ProductID = nil
			r.enquiries[k] = e
		}
	}
	delete(r.prods, id)
	r.writes++
	return nil
}

func (r memProds) FindByID(_ context.Context, id string) (*domain.Product, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	if p, ok := r.prods[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r memProds) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, p := range r.prods {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memProds) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range r.prods {
		if in(p.ID, ids) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProds) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, 0, err
	}
	var out []domain.Product
	for _, p := range r.prods {
		p := p
		if len(f.CategoryIDs) > 0 && !in(p.CategoryID, f.CategoryIDs) {
			continue
		}
		if !matches(f.Search, &p.Title, &p.Slug, p.Description) {
			continue
		}
		out = append(out, p)
	}
	newestFirst(out, func(p domain.Product) time.Time { return p.CreatedAt })
	return window(out, f.Offset, f.Limit), int64(len(out)), nil
}

func (r memProds) InCategories(_ context.Context, categoryIDs []string) ([]domain.Product, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range r.prods {
		if in(p.CategoryID, categoryIDs) {
			out = append(out, p)
		}
	}
	newestFirst(out, func(p domain.Product) time.Time { return p.CreatedAt })
	return out, nil
}

func (r memProds) Count(_ context.Context) (int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return 0, err
	}
	return int64(len(r.prods)), nil
}

// ---- contacts / enquiries ----

type memContacts struct{ *memStore }

func (r memContacts) Create(_ context.Context, c *domain.Contact) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	c.CreatedAt = r.tick()
	r.contacts[c.ID] = *c
	return nil
}

func (r memContacts) FindByID(_ context.Context, id string) (*domain.Contact, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	if c, ok := r.contacts[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r memContacts) Delete(_ context.Context, id string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	delete(r.contacts, id)
	return nil
}

func (r memContacts) List(_ context.Context, f domain.ListFilter) ([]domain.Contact, int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, 0, err
	}
	var out []domain.Contact
	for _, c := range r.contacts {
		c := c
		if matches(f.Search, &c.Name, &c.Email, &c.Message) {
			out = append(out, c)
		}
	}
	newestFirst(out, func(c domain.Contact) time.Time { return c.CreatedAt })
	return window(out, f.Offset, f.Limit), int64(len(out)), nil
}

func (r memContacts) Count(_ context.Context) (int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return 0, err
	}
	return int64(len(r.contacts)), nil
}

type memEnquiries struct{ *memStore }

func (r memEnquiries) Create(_ context.Context, e *domain.Enquiry) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	e.CreatedAt = r.tick()
	r.enquiries[e.ID] = *e
	return nil
}

func (r memEnquiries) FindByID(_ context.Context, id string) (*domain.Enquiry, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	if e, ok := r.enquiries[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r memEnquiries) Delete(_ context.Context, id string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	delete(r.enquiries, id)
	return nil
}

func (r memEnquiries) List(_ context.Context, f domain.ListFilter) ([]domain.Enquiry, int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, 0, err
	}
	var out []domain.Enquiry
	for _, e := range r.enquiries {
		e := e
		if matches(f.Search, &e.Name, &e.Email, e.Company, &e.Message) {
			out = append(out, e)
		}
	}
	newestFirst(out, func(e domain.Enquiry) time.Time { return e.CreatedAt })
	return window(out, f.Offset, f.Limit), int64(len(out)), nil
}

func (r memEnquiries) Count(_ context.Context) (int64, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return 0, err
	}
	return int64(len(r.enquiries)), nil
}

// ---- users ----

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for _, x := range r.users {
		if x.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	u.CreatedAt = r.tick()
	r.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	unlock, err := r.lock()
	defer unlock()
	if err != nil {
		return err
	}
	u, ok := r.users[id]
	if !ok {
		return errors.New("no such user")
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

// fakeCache records invalidations and serves from a map.
type fakeCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	invalidated int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	b, ok := c.data[key]
	c.mu.Unlock()
	if ok {
		return b, nil
	}
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return b, nil
}

func (c *fakeCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	c.invalidated++
	return nil
}
