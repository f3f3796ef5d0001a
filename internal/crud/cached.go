package crud

import (
	"context"

	"github.com/sushihentaime/blogpress/internal/common"
)

// CachedCollection decorates a Collection with a read-through cache on
// single-record fetches. Mutations through the collection invalidate the
// cached copy; mutations performed outside it (domain actions issuing
// their own SQL) must call Invalidate themselves.
type CachedCollection struct {
	Collection
	cache *common.Cache
}

// WithCache wraps col. A nil cache returns a pass-through wrapper.
func WithCache(col Collection, c *common.Cache) *CachedCollection {
	return &CachedCollection{Collection: col, cache: c}
}

func (c *CachedCollection) Get(ctx context.Context, id int) (Record, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(c.key(id)); ok {
			if rec, ok := v.(Record); ok {
				return rec, nil
			}
		}
	}

	rec, err := c.Collection.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(c.key(id), rec)
	}

	return rec, nil
}

func (c *CachedCollection) Update(ctx context.Context, id int, fields Record) (Record, error) {
	rec, err := c.Collection.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	c.Invalidate(id)
	return rec, nil
}

func (c *CachedCollection) Delete(ctx context.Context, id int) (Record, error) {
	rec, err := c.Collection.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Invalidate(id)
	return rec, nil
}

func (c *CachedCollection) Invalidate(id int) {
	if c.cache != nil {
		c.cache.Delete(c.key(id))
	}
}

func (c *CachedCollection) key(id int) string {
	return common.CacheKeyRecord(c.Name(), id)
}
