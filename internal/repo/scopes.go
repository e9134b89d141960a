package repo

import (
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type scope = func(*gorm.DB) *gorm.DB

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern lower-cases s and wraps it for a substring LIKE match.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// search ORs a case-insensitive substring match over cols. An empty term is a no-op.
func search(term string, cols ...string) scope {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(term) == "" || len(cols) == 0 {
			return db
		}
		parts := make([]string, len(cols))
		args := make([]any, len(cols))
		pat := likePattern(term)
		for i, c := range cols {
			parts[i] = "LOWER(" + c + ") LIKE ?"
			args[i] = pat
		}
		return db.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
}

func paginate(offset, limit int) scope {
	return func(db *gorm.DB) *gorm.DB {
		if offset > 0 {
			db = db.Offset(offset)
		}
		if limit > 0 {
			db = db.Limit(limit)
		}
		return db
	}
}

// countAndFind runs the total count and the page query concurrently. base must
// return a fresh chain on each call.
func countAndFind[T any](base func() *gorm.DB, order []string, offset, limit int) ([]T, int64, error) {
	var (
		items []T
		total int64
		g     errgroup.Group
	)
	g.Go(func() error { return base().Count(&total).Error })
	g.Go(func() error {
		q := base().Scopes(paginate(offset, limit))
		for _, o := range order {
			q = q.Order(o)
		}
		return q.Find(&items).Error
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// first returns (nil, nil) when no row matches.
func first[T any](q *gorm.DB) (*T, error) {
	var v T
	err := q.First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type idCount struct {
	ID string
	N  int64
}

func countBy(db *gorm.DB, model any, col string, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []idCount
	err := db.Model(model).
		Select(col+" AS id, COUNT(*) AS n").
		Where(col+" IN ?", ids).
		Group(col).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out, nil
}
