package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
)

// Compile-time check
var _ Session = (*DuckDbSession)(nil)

// DuckDbSession runs the dashboard queries against a local DuckDB database,
// for development against parquet extracts and for integration tests.
type DuckDbSession struct {
	db *sql.DB
}

// NewDuckDbSession opens the database at path, an empty path opens an
// in-memory database.
func NewDuckDbSession(path string) (*DuckDbSession, error) {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DuckDbSession{db: conn}, nil
}

func NewDuckDbSessionWithDb(db *sql.DB) *DuckDbSession {
	return &DuckDbSession{db: db}
}

// Exec runs statements that return no rows, mostly fixture DDL
func (s *DuckDbSession) Exec(ctx context.Context, query string, values ...interface{}) error {
	_, err := s.db.ExecContext(ctx, query, values...)
	return err
}

func (s *DuckDbSession) Close() error {
	return s.db.Close()
}

func (s *DuckDbSession) ExecuteIter(ctx context.Context, query string, _ *QueryOptions, args ...interface{}) (ResultSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnInfo, len(columnTypes))
	for i, columnType := range columnTypes {
		columns[i] = ColumnInfo{
			Name: columnType.Name(),
			Type: strings.ToLower(columnType.DatabaseTypeName()),
		}
	}

	values := make([]map[string]interface{}, 0)
	for rows.Next() {
		scanned := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range scanned {
			pointers[i] = &scanned[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			row[column.Name] = normalizeValue(scanned[i])
		}
		values = append(values, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewResultSet(uuid.New().String(), columns, values), nil
}
