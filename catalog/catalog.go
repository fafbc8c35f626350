// Package catalog lists the perception dumps the explorer can query and the
// status of the workflows producing them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/autoperception/dataset-explorer/schema"
)

// ErrNotFound is returned for datasets missing from the catalog
var ErrNotFound = errors.New("dataset not found")

// Dataset is a perception dump and the physical tables it is stored in,
// keyed by logical table name.
type Dataset struct {
	Name        string            `dynamodbav:"name" json:"name" mapstructure:"name"`
	Description string            `dynamodbav:"description" json:"description,omitempty" mapstructure:"description"`
	Created     time.Time         `dynamodbav:"created" json:"created" mapstructure:"created"`
	Tables      map[string]string `dynamodbav:"tables" json:"tables" mapstructure:"tables"`
}

// Workflow is the last known state of a pipeline run over a dataset
type Workflow struct {
	ID      string    `dynamodbav:"id" json:"id" mapstructure:"id"`
	Dataset string    `dynamodbav:"dataset" json:"dataset" mapstructure:"dataset"`
	Name    string    `dynamodbav:"name" json:"name" mapstructure:"name"`
	Status  string    `dynamodbav:"status" json:"status" mapstructure:"status"`
	Message string    `dynamodbav:"message" json:"message,omitempty" mapstructure:"message"`
	Updated time.Time `dynamodbav:"updated" json:"updated" mapstructure:"updated"`
}

// Source reads dataset items
type Source interface {
	Datasets(ctx context.Context) ([]Dataset, error)
	Dataset(ctx context.Context, name string) (Dataset, error)
}

// WorkflowSource reads workflow items, restricted to one dataset unless
// dataset is empty
type WorkflowSource interface {
	Workflows(ctx context.Context, dataset string) ([]Workflow, error)
}

// Tables folds datasets into table definitions, so that every logical table
// knows the physical path of each dataset holding it.
func Tables(datasets []Dataset) map[string]schema.Table {
	tables := make(map[string]schema.Table)
	for _, dataset := range datasets {
		for name, path := range dataset.Tables {
			table, ok := tables[name]
			if !ok {
				table = schema.NewTable(name)
			}
			tables[name] = table.WithPath(dataset.Name, path)
		}
	}
	return tables
}

func sortDatasets(datasets []Dataset) {
	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].Name < datasets[j].Name
	})
}

// sortWorkflows orders workflows by last update, most recent first
func sortWorkflows(workflows []Workflow) {
	sort.SliceStable(workflows, func(i, j int) bool {
		if workflows[i].Updated.Equal(workflows[j].Updated) {
			return workflows[i].ID < workflows[j].ID
		}
		return workflows[i].Updated.After(workflows[j].Updated)
	})
}

func notFound(name string) error {
	return fmt.Errorf("%w: '%s'", ErrNotFound, name)
}
