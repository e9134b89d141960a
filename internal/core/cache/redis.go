package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load once it is detached from the caller.
const DefaultLoadTimeout = 10 * time.Second

type Cache struct {
	RDB         *redis.Client
	LoadTimeout time.Duration
	sf          singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{RDB: rdb, LoadTimeout: DefaultLoadTimeout}
}

func (c *Cache) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.RDB.Close() }

// genKey holds the generation of a key namespace, the text up to and
// including the first colon. It sits outside the namespace so a prefix
// scan never deletes it.
func genKey(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		key = key[:i+1]
	}
	return "gen:" + key
}

func (c *Cache) generation(ctx context.Context, key string) (int64, error) {
	g, err := c.RDB.Get(ctx, genKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return g, err
}

// GetOrLoad serves key from redis, otherwise runs load once per key and
// generation across concurrent callers and stores the result. The load runs
// detached from ctx under LoadTimeout so one caller giving up does not fail
// the others. A result is only stored if no InvalidatePrefix ran while it
// was loading. A redis outage degrades to load.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	gen, genErr := c.generation(ctx, key)
	flight := key + "@" + strconv.FormatInt(gen, 10)
	ch := c.sf.DoChan(flight, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout())
		defer cancel()
		b, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			c.storeIfCurrent(lctx, key, gen, b, ttl)
		}
		return b, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil
	}
}

func (c *Cache) loadTimeout() time.Duration {
	if c.LoadTimeout <= 0 {
		return DefaultLoadTimeout
	}
	return c.LoadTimeout
}

// storeIfCurrent writes b under key unless the namespace generation moved
// past gen. WATCH turns a concurrent INCR into a failed transaction.
func (c *Cache) storeIfCurrent(ctx context.Context, key string, gen int64, b []byte, ttl time.Duration) {
	gk := genKey(key)
	_ = c.RDB.Watch(ctx, func(tx *redis.Tx) error {
		now, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if now != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, gk)
}

// InvalidatePrefix bumps the generation of the prefix's namespace, which
// stops in-flight loads from storing, then deletes every key starting with
// prefix.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if err := c.RDB.Incr(ctx, genKey(prefix)).Err(); err != nil {
		return err
	}
	iter := c.RDB.Scan(ctx, 0, prefix+"*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := c.RDB.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.RDB.Del(ctx, batch...).Err()
	}
	return nil
}
