package db

import (
	"context"
)

type QueryOptions struct {
	Database       string
	Workgroup      string
	OutputLocation string
	User           string
}

func NewQueryOptions() *QueryOptions {
	return &QueryOptions{
		Workgroup: "primary",
	}
}

func (q *QueryOptions) WithDatabase(database string) *QueryOptions {
	q.Database = database
	return q
}

func (q *QueryOptions) WithWorkgroup(workgroup string) *QueryOptions {
	q.Workgroup = workgroup
	return q
}

func (q *QueryOptions) WithOutputLocation(outputLocation string) *QueryOptions {
	q.OutputLocation = outputLocation
	return q
}

func (q *QueryOptions) WithUser(user string) *QueryOptions {
	q.User = user
	return q
}

// ColumnInfo describes a result column as reported by the query engine.
// Type is the engine's type name, lower case (e.g. "varchar", "bigint").
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Session interface {
	// ExecuteIter executes a statement and returns the whole result set
	ExecuteIter(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (ResultSet, error)
}

type ResultSet interface {
	QueryID() string
	Columns() []ColumnInfo
	Values() []map[string]interface{}
}

type resultSet struct {
	queryID string
	columns []ColumnInfo
	values  []map[string]interface{}
}

func (r *resultSet) QueryID() string {
	return r.queryID
}

func (r *resultSet) Columns() []ColumnInfo {
	return r.columns
}

func (r *resultSet) Values() []map[string]interface{} {
	return r.values
}

// NewResultSet builds an in-memory result set.
func NewResultSet(queryID string, columns []ColumnInfo, values []map[string]interface{}) ResultSet {
	if values == nil {
		values = make([]map[string]interface{}, 0)
	}
	return &resultSet{queryID: queryID, columns: columns, values: values}
}
