package schema

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/atomic"

	"github.com/autoperception/dataset-explorer/db"
	"github.com/autoperception/dataset-explorer/log"
)

// Prober discovers column metadata from the query engine
type Prober interface {
	Probe(ctx context.Context, path string) ([]db.ColumnInfo, error)
	Distinct(ctx context.Context, path string, column string, limit int) ([]interface{}, error)
}

type cacheKey struct {
	path   string
	column string
}

// Cache keeps column types and distinct values per physical table. Entries
// are fetched once and re-fetched by Refresh.
type Cache struct {
	prober        Prober
	distinctLimit int
	logger        log.Logger

	mutex    sync.RWMutex
	columns  map[string]Columns
	distinct map[cacheKey][]interface{}

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCache(prober Prober, distinctLimit int, logger log.Logger) *Cache {
	return &Cache{
		prober:        prober,
		distinctLimit: distinctLimit,
		logger:        logger,
		columns:       make(map[string]Columns),
		distinct:      make(map[cacheKey][]interface{}),
	}
}

// Columns returns the column metadata of a table's dataset
func (c *Cache) Columns(ctx context.Context, table Table, dataset string) (Columns, error) {
	path, err := table.Path(dataset)
	if err != nil {
		return nil, err
	}

	c.mutex.RLock()
	columns, ok := c.columns[path]
	c.mutex.RUnlock()
	if ok {
		c.hits.Inc()
		return columns, nil
	}

	c.misses.Inc()
	columns, err = c.probe(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.columns[path] = columns
	c.mutex.Unlock()
	return columns, nil
}

// SortedColumns returns the column metadata ordered by name
func (c *Cache) SortedColumns(ctx context.Context, table Table, dataset string) ([]Column, error) {
	columns, err := c.Columns(ctx, table, dataset)
	if err != nil {
		return nil, err
	}

	sorted := make([]Column, 0, len(columns))
	for _, column := range columns {
		sorted = append(sorted, column)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted, nil
}

// DistinctValues returns the values a column takes, used for dropdowns
func (c *Cache) DistinctValues(ctx context.Context, table Table, dataset string, column string) ([]interface{}, error) {
	columns, err := c.Columns(ctx, table, dataset)
	if err != nil {
		return nil, err
	}
	if _, err := columns.Get(column); err != nil {
		return nil, err
	}

	path, _ := table.Path(dataset)
	key := cacheKey{path: path, column: column}

	c.mutex.RLock()
	values, ok := c.distinct[key]
	c.mutex.RUnlock()
	if ok {
		c.hits.Inc()
		return values, nil
	}

	c.misses.Inc()
	values, err = c.prober.Distinct(ctx, path, column, c.distinctLimit)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.distinct[key] = values
	c.mutex.Unlock()
	return values, nil
}

// Refresh re-fetches every cached entry. Entries that fail keep their
// previous value.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mutex.RLock()
	paths := make([]string, 0, len(c.columns))
	for path := range c.columns {
		paths = append(paths, path)
	}
	keys := make([]cacheKey, 0, len(c.distinct))
	for key := range c.distinct {
		keys = append(keys, key)
	}
	c.mutex.RUnlock()

	var firstErr error
	for _, path := range paths {
		columns, err := c.probe(ctx, path)
		if err != nil {
			c.logger.Warn("unable to refresh column metadata", "path", path, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.mutex.Lock()
		c.columns[path] = columns
		c.mutex.Unlock()
	}

	for _, key := range keys {
		values, err := c.prober.Distinct(ctx, key.path, key.column, c.distinctLimit)
		if err != nil {
			c.logger.Warn("unable to refresh distinct values",
				"path", key.path, "column", key.column, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.mutex.Lock()
		c.distinct[key] = values
		c.mutex.Unlock()
	}

	c.logger.Debug("metadata cache refreshed",
		"tables", len(paths),
		"columns", len(keys),
		"hits", c.hits.Load(),
		"misses", c.misses.Load())
	return firstErr
}

// Stats reports the cache hits and misses since start
func (c *Cache) Stats() (int64, int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) probe(ctx context.Context, path string) (Columns, error) {
	infos, err := c.prober.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	columns := make(Columns, len(infos))
	for _, info := range infos {
		columns[info.Name] = NewColumn(info.Name, TypeFromEngine(info.Type))
	}
	return columns, nil
}
