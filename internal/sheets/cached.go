package sheets

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"shopledger/internal/cache"
	"shopledger/internal/core"
)

// Cached decorates a Source with a TTL+LRU cache. Concurrent misses for the
// same sheet share one upstream fetch. Callers receive shared rows and must
// not mutate them. A fetch that overlaps an invalidation is returned to its
// callers but never stored, and later readers start a fresh fetch.
type Cached struct {
	next  Source
	store *cache.LRUCache[[]core.RawRow]
	group singleflight.Group
	epoch atomic.Uint64
}

var _ Source = (*Cached)(nil)

// NewCached wraps next with store.
func NewCached(next Source, store *cache.LRUCache[[]core.RawRow]) *Cached {
	return &Cached{next: next, store: store}
}

func refKey(ref Ref) string { return ref.SpreadsheetID + "/" + ref.Sheet }

// urlKey files opensheet and Google URLs under their Ref so Invalidate
// reaches them.
func urlKey(rawURL string) string {
	if ref, err := ParseSheetURL(rawURL); err == nil {
		return refKey(ref)
	}
	return "url:" + strings.TrimSpace(rawURL)
}

// ReadRows serves ref from the cache, fetching it on a miss.
func (c *Cached) ReadRows(ctx context.Context, ref Ref) ([]core.RawRow, error) {
	return c.load(ctx, refKey(ref), func(ctx context.Context) ([]core.RawRow, error) {
		return c.next.ReadRows(ctx, ref)
	})
}

// ReadURL serves rawURL from the cache, fetching it on a miss.
func (c *Cached) ReadURL(ctx context.Context, rawURL string) ([]core.RawRow, error) {
	return c.load(ctx, urlKey(rawURL), func(ctx context.Context) ([]core.RawRow, error) {
		return c.next.ReadURL(ctx, rawURL)
	})
}

func (c *Cached) load(ctx context.Context, key string, fetch func(context.Context) ([]core.RawRow, error)) ([]core.RawRow, error) {
	if rows, ok := c.store.Get(key); ok {
		return rows, nil
	}
	epoch := c.epoch.Load()
	ch := c.group.DoChan(key+"@"+strconv.FormatUint(epoch, 10), func() (any, error) {
		// Detached from any one caller so a cancelled request does not fail
		// the others waiting on the same key.
		rows, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if c.epoch.Load() == epoch {
			c.store.Set(key, rows)
		}
		return rows, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]core.RawRow), nil
	}
}

// Invalidate drops ref. An empty Sheet drops every sheet of the spreadsheet.
func (c *Cached) Invalidate(ref Ref) int {
	c.epoch.Add(1)
	if ref.Sheet == "" {
		return c.store.DeletePrefix(ref.SpreadsheetID + "/")
	}
	key := refKey(ref)
	if _, ok := c.store.Get(key); !ok {
		return 0
	}
	c.store.Delete(key)
	return 1
}

// InvalidateAll empties the cache.
func (c *Cached) InvalidateAll() {
	c.epoch.Add(1)
	c.store.Clear()
}
