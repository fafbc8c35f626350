package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/autoperception/dataset-explorer/log"
	"github.com/autoperception/dataset-explorer/schema"
)

// Registry keeps the catalog in memory. The first read loads it and Refresh
// reloads it, keeping the previous copy when the source fails.
type Registry struct {
	source Source
	logger log.Logger

	mutex    sync.RWMutex
	loaded   bool
	datasets []Dataset
	tables   map[string]schema.Table
}

func NewRegistry(source Source, logger log.Logger) *Registry {
	return &Registry{source: source, logger: logger}
}

func (r *Registry) Datasets(ctx context.Context) ([]Dataset, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]Dataset{}, r.datasets...), nil
}

// Dataset reads a single dataset through to the source
func (r *Registry) Dataset(ctx context.Context, name string) (Dataset, error) {
	return r.source.Dataset(ctx, name)
}

// Table returns the definition of a logical table across datasets
func (r *Registry) Table(ctx context.Context, name string) (schema.Table, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return schema.Table{}, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	table, ok := r.tables[name]
	if !ok {
		return schema.Table{}, fmt.Errorf("%w: table '%s'", schema.ErrNotFound, name)
	}
	return table, nil
}

func (r *Registry) Refresh(ctx context.Context) error {
	datasets, err := r.source.Datasets(ctx)
	if err != nil {
		r.logger.Error("unable to load catalog", "error", err)
		return err
	}

	tables := Tables(datasets)

	r.mutex.Lock()
	r.datasets = datasets
	r.tables = tables
	r.loaded = true
	r.mutex.Unlock()

	r.logger.Debug("catalog loaded", "datasets", len(datasets), "tables", len(tables))
	return nil
}

func (r *Registry) ensureLoaded(ctx context.Context) error {
	r.mutex.RLock()
	loaded := r.loaded
	r.mutex.RUnlock()
	if loaded {
		return nil
	}
	return r.Refresh(ctx)
}

// Workflows reads workflow statuses
type Workflows struct {
	source WorkflowSource
}

func NewWorkflows(source WorkflowSource) *Workflows {
	return &Workflows{source: source}
}

// Statuses lists workflows most recently updated first, restricted to a
// dataset unless dataset is empty
func (w *Workflows) Statuses(ctx context.Context, dataset string) ([]Workflow, error) {
	workflows, err := w.source.Workflows(ctx, dataset)
	if err != nil {
		return nil, err
	}
	sortWorkflows(workflows)
	return workflows, nil
}
