package domain

import (
	"context"
	"errors"
	"time"
)

type Category struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	Name        string    `gorm:"size:191;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:191;not null" json:"slug"`
	Description *string   `gorm:"type:text" json:"description"`
	ImageURL    *string   `gorm:"size:1024" json:"imageUrl"`
	ParentID    *string   `gorm:"size:32;index" json:"parentId"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) IsMain() bool { return c.ParentID == nil }

func (c *Category) Ref() CategoryRef { return CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug} }

type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CategoryCounts struct {
	Products      int64 `json:"products"`
	Subcategories int64 `json:"subcategories"`
}

// ---- two-level tree ----

var (
	ErrSelfParent  = errors.New("category cannot be its own parent")
	ErrCircular    = errors.New("cannot create circular reference")
	ErrTooDeep     = errors.New("categories can only be nested two levels deep")
	ErrNotChildOf  = errors.New("subcategory does not belong to this category")
	ErrNotTopLevel = errors.New("main category cannot have a parent")
)

// MainCategory and SubCategory are the only two levels; no third exists.
type MainCategory struct {
	Category
	Children []SubCategory `json:"subcategories"`
}

type SubCategory struct {
	Category
	Parent CategoryRef `json:"parent"`
}

// NewSub places c under parent. It fails when the result would be a cycle or
// a third level: parent must be a main category and c must not be parent's
// own parent.
func NewSub(c Category, parent Category) (SubCategory, error) {
	if c.ID != "" && c.ID == parent.ID {
		return SubCategory{}, ErrSelfParent
	}
	if parent.ParentID != nil {
		if c.ID != "" && *parent.ParentID == c.ID {
			return SubCategory{}, ErrCircular
		}
		return SubCategory{}, ErrTooDeep
	}
	pid := parent.ID
	c.ParentID = &pid
	return SubCategory{Category: c, Parent: parent.Ref()}, nil
}

// NewMain builds a main category with its direct children.
func NewMain(c Category, children []Category) (MainCategory, error) {
	if c.ParentID != nil {
		return MainCategory{}, ErrNotTopLevel
	}
	m := MainCategory{Category: c, Children: make([]SubCategory, 0, len(children))}
	for _, ch := range children {
		if ch.ParentID == nil || *ch.ParentID != c.ID {
			return MainCategory{}, ErrNotChildOf
		}
		m.Children = append(m.Children, SubCategory{Category: ch, Parent: c.Ref()})
	}
	return m, nil
}

// BuildTree groups a flat slice into main categories, keeping input order for
// both levels. Children whose parent is not in the slice are dropped.
func BuildTree(all []Category) []MainCategory {
	byParent := map[string][]Category{}
	var mains []Category
	for _, c := range all {
		if c.ParentID == nil {
			mains = append(mains, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}
	out := make([]MainCategory, 0, len(mains))
	for _, m := range mains {
		node, _ := NewMain(m, byParent[m.ID])
		out = append(out, node)
	}
	return out
}

// ---- repository ----

type CategoryFilter struct {
	Search    string
	OnlyMain  bool
	MainFirst bool // order main categories before subcategories
	Offset    int
	Limit     int
}

type CategoryPatch struct {
	Name        *string
	Slug        *string
	Description *string
	ImageURL    *string
	ParentID    *string
	ClearParent bool
}

func (p CategoryPatch) Empty() bool {
	return p.Name == nil && p.Slug == nil && p.Description == nil &&
		p.ImageURL == nil && p.ParentID == nil && !p.ClearParent
}

// CategoryRepository finders return (nil, nil) when nothing matches.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, id string, p CategoryPatch) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]Category, error)
	List(ctx context.Context, f CategoryFilter) ([]Category, int64, error)
	// Children of the given parents, created_at desc, or name asc when byName.
	Children(ctx context.Context, parentIDs []string, byName bool) ([]Category, error)
	MainByName(ctx context.Context) ([]Category, error)
	CountProducts(ctx context.Context, ids []string) (map[string]int64, error)
	CountChildren(ctx context.Context, ids []string) (map[string]int64, error)
	Count(ctx context.Context) (int64, error)
}
