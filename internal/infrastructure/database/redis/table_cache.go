package redis

import (
	"context"
	"time"

	"github.com/turtacn/perovskite-json/internal/domain/reference"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

const tableKeyPrefix = "reference:table:"

// CacheObserver receives hit and miss events; the prometheus collector
// implements it.
type CacheObserver interface {
	CacheHit(site string)
	CacheMiss(site string)
}

// TableCache is a reference.TableSource that keeps parsed tables in redis for
// ttl.  A short ttl keeps edits to the table files visible quickly; call
// Invalidate after a known change.
type TableCache struct {
	cache    Cache
	next     reference.TableSource
	ttl      time.Duration
	logger   logging.Logger
	observer CacheObserver
}

// NewTableCache wraps next.  observer may be nil.
func NewTableCache(cache Cache, next reference.TableSource, ttl time.Duration, observer CacheObserver, log logging.Logger) *TableCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &TableCache{cache: cache, next: next, ttl: ttl, logger: log, observer: observer}
}

func tableKey(site ptypes.Site) string {
	return tableKeyPrefix + string(site)
}

// Load implements reference.TableSource.
func (t *TableCache) Load(ctx context.Context, site ptypes.Site) (*reference.Table, error) {
	var table reference.Table
	hit, err := t.cache.GetOrSet(ctx, tableKey(site), &table, t.ttl, func(ctx context.Context) (interface{}, error) {
		return t.next.Load(ctx, site)
	})
	if err != nil {
		return nil, err
	}

	if t.observer != nil {
		if hit {
			t.observer.CacheHit(string(site))
		} else {
			t.observer.CacheMiss(string(site))
		}
	}
	t.logger.Debug("Reference table served", logging.String("site", string(site)), logging.Bool("cache_hit", hit))
	return &table, nil
}

// Invalidate drops the cached tables of the given sites, or of every site
// when none are given.
func (t *TableCache) Invalidate(ctx context.Context, sites ...ptypes.Site) error {
	if len(sites) == 0 {
		_, err := t.cache.DeleteByPrefix(ctx, tableKeyPrefix)
		return err
	}
	keys := make([]string, len(sites))
	for i, s := range sites {
		keys[i] = tableKey(s)
	}
	return t.cache.Delete(ctx, keys...)
}
