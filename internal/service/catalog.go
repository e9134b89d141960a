package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"quartz-storefront/internal/core/cache"
	"quartz-storefront/internal/core/errs"
	"quartz-storefront/internal/domain"
)

const cachePrefix = "catalog:"

// CatalogCache is the read-through cache in front of public catalog reads.
type CatalogCache interface {
	cache.Loader
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// CatalogService owns the category tree and the products hanging off it.
type CatalogService struct {
	cats  domain.CategoryRepository
	prods domain.ProductRepository
	cache CatalogCache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCatalogService wires the service. c may be nil, in which case every read
// goes to the store.
func NewCatalogService(cats domain.CategoryRepository, prods domain.ProductRepository, c CatalogCache, ttl time.Duration, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{cats: cats, prods: prods, cache: c, ttl: ttl, log: log}
}

func (s *CatalogService) cached(key string) string { return cachePrefix + key }

func (s *CatalogService) loader() cache.Loader {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

// invalidate drops every cached catalog read. Failures are logged; the TTL
// bounds how long a stale entry can live.
func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, cachePrefix); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

// storeErr logs a failed store call and classifies it.
func (s *CatalogService) storeErr(op string, err error, conflictMsg string) error {
	out := errs.FromStore(err, conflictMsg)
	if errs.Is(out, errs.UpstreamFailure) {
		s.log.Error("catalog store call failed", zap.String("op", op), zap.Error(err))
	}
	return out
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func nonEmpty(field string, p *string) error {
	if p != nil && strings.TrimSpace(*p) == "" {
		return errs.Validation(fmt.Sprintf("%s must not be empty", field))
	}
	return nil
}

func refsByID(cs []domain.Category) map[string]domain.CategoryRef {
	out := make(map[string]domain.CategoryRef, len(cs))
	for i := range cs {
		out[cs[i].ID] = cs[i].Ref()
	}
	return out
}

func ids[T any](items []T, id func(*T) string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for i := range items {
		k := id(&items[i])
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
