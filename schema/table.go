package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is wrapped by lookups of unknown tables, datasets and columns
var ErrNotFound = errors.New("not found")

// Table is a logical table (e.g. "frames") with one physical location per
// dataset dump.
type Table struct {
	Name  string            `json:"name"`
	Paths map[string]string `json:"paths"`
}

func NewTable(name string) Table {
	return Table{Name: name, Paths: make(map[string]string)}
}

func (t Table) WithPath(dataset string, path string) Table {
	t.Paths[dataset] = path
	return t
}

// Path resolves the physical table path of a dataset
func (t Table) Path(dataset string) (string, error) {
	path, ok := t.Paths[dataset]
	if !ok || path == "" {
		return "", fmt.Errorf("dataset %s for table %s: %w", dataset, t.Name, ErrNotFound)
	}
	return path, nil
}

// Datasets lists the datasets the table is available in, sorted
func (t Table) Datasets() []string {
	datasets := make([]string, 0, len(t.Paths))
	for dataset := range t.Paths {
		datasets = append(datasets, dataset)
	}
	sort.Strings(datasets)
	return datasets
}

// Columns indexes columns by name
type Columns map[string]Column

func NewColumns(columns ...Column) Columns {
	indexed := make(Columns, len(columns))
	for _, column := range columns {
		indexed[column.Name] = column
	}
	return indexed
}

// Lookup returns the column, or an untyped column when it is unknown
func (c Columns) Lookup(name string) Column {
	if column, ok := c[name]; ok {
		return column
	}
	return Column{Name: name}
}

func (c Columns) Get(name string) (Column, error) {
	if column, ok := c[name]; ok {
		return column, nil
	}
	return Column{}, fmt.Errorf("column %s: %w", name, ErrNotFound)
}
