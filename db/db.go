package db

import (
	"context"
	"fmt"
	"time"

	"github.com/autoperception/dataset-explorer/auth"
	"github.com/autoperception/dataset-explorer/log"
)

// Db represents the query engine behind the dashboards
type Db struct {
	session Session
	options QueryOptions
	logger  log.Logger
}

func NewDbWithSession(session Session, options *QueryOptions, logger log.Logger) *Db {
	if options == nil {
		options = NewQueryOptions()
	}
	return &Db{
		session: session,
		options: *options,
		logger:  logger,
	}
}

// Execute runs a query on behalf of the user stored in the context.
func (db *Db) Execute(ctx context.Context, query string, values ...interface{}) (ResultSet, error) {
	options := db.options
	options.User = auth.ContextUser(ctx)

	start := time.Now()
	rs, err := db.session.ExecuteIter(ctx, query, &options, values...)
	if err != nil {
		db.logger.Error("query failed",
			"query", query,
			"user", options.User,
			"error", err)
		return nil, err
	}

	db.logger.Debug("query executed",
		"queryId", rs.QueryID(),
		"query", query,
		"user", options.User,
		"rows", len(rs.Values()),
		"duration", time.Since(start))
	return rs, nil
}

// Probe fetches a single row of the table to discover its column types
func (db *Db) Probe(ctx context.Context, path string) ([]ColumnInfo, error) {
	rs, err := db.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 1", path))
	if err != nil {
		return nil, err
	}
	return rs.Columns(), nil
}

// Distinct retrieves the distinct values of a column, ordered
func (db *Db) Distinct(ctx context.Context, path string, column string, limit int) ([]interface{}, error) {
	query := fmt.Sprintf("SELECT %s FROM %s GROUP BY %s ORDER BY %s", column, path, column, column)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rs, err := db.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, len(rs.Values()))
	for _, row := range rs.Values() {
		values = append(values, row[column])
	}
	return values, nil
}
