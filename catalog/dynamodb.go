package catalog

import (
	"context"
)

// ItemStore reads items from a key-value store
type ItemStore interface {
	Scan(ctx context.Context, table string, filter map[string]string, out interface{}) error
	Get(ctx context.Context, table string, key map[string]string, out interface{}) (bool, error)
}

// DynamoDbSource reads the catalog and workflow tables. Dataset items are
// keyed by "name", workflow items by "id".
type DynamoDbSource struct {
	store         ItemStore
	catalogTable  string
	workflowTable string
}

func NewDynamoDbSource(store ItemStore, catalogTable string, workflowTable string) *DynamoDbSource {
	return &DynamoDbSource{
		store:         store,
		catalogTable:  catalogTable,
		workflowTable: workflowTable,
	}
}

func (s *DynamoDbSource) Datasets(ctx context.Context) ([]Dataset, error) {
	var datasets []Dataset
	if err := s.store.Scan(ctx, s.catalogTable, nil, &datasets); err != nil {
		return nil, err
	}
	sortDatasets(datasets)
	return datasets, nil
}

func (s *DynamoDbSource) Dataset(ctx context.Context, name string) (Dataset, error) {
	var dataset Dataset
	found, err := s.store.Get(ctx, s.catalogTable, map[string]string{"name": name}, &dataset)
	if err != nil {
		return Dataset{}, err
	}
	if !found {
		return Dataset{}, notFound(name)
	}
	return dataset, nil
}

func (s *DynamoDbSource) Workflows(ctx context.Context, dataset string) ([]Workflow, error) {
	var filter map[string]string
	if dataset != "" {
		filter = map[string]string{"dataset": dataset}
	}

	var workflows []Workflow
	if err := s.store.Scan(ctx, s.workflowTable, filter, &workflows); err != nil {
		return nil, err
	}
	sortWorkflows(workflows)
	return workflows, nil
}
