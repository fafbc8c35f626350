// Package query builds the aggregate and row queries behind the dashboards
// on top of squirrel. Every builder takes an already compiled WHERE
// fragment and returns SQL with ? placeholders plus its arguments.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/autoperception/dataset-explorer/schema"
)

type Order struct {
	Column     string
	Descending bool
}

func (o Order) String() string {
	if o.Descending {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// filtered adds a compiled WHERE fragment, parenthesized so it composes
// with the builder's own predicates
func filtered(b sq.SelectBuilder, where string) sq.SelectBuilder {
	if strings.TrimSpace(where) == "" {
		return b
	}
	return b.Where("(" + where + ")")
}

// Select fetches filtered rows
func Select(path string, columns []string, where string, orderBy []Order, limit uint64) (string, []interface{}, error) {
	if path == "" {
		return "", nil, errors.New("table path is required")
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	b := filtered(sq.Select(columns...).From(path), where)
	for _, order := range orderBy {
		b = b.OrderBy(order.String())
	}
	if limit > 0 {
		b = b.Limit(limit)
	}
	return b.ToSql()
}

// Count counts the rows behind a filter
func Count(path string, where string) (string, []interface{}, error) {
	if path == "" {
		return "", nil, errors.New("table path is required")
	}
	return filtered(sq.Select("COUNT(*) AS count").From(path), where).ToSql()
}

// Union runs the same select over several datasets, tagging every row with
// its dataset name in a "dataset" column. The limit applies to the whole union.
func Union(paths map[string]string, columns []string, where string, limit uint64) (string, []interface{}, error) {
	if len(paths) == 0 {
		return "", nil, errors.New("at least one dataset is required")
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	datasets := make([]string, 0, len(paths))
	for dataset := range paths {
		datasets = append(datasets, dataset)
	}
	sort.Strings(datasets)

	parts := make([]string, 0, len(datasets))
	var args []interface{}
	for _, dataset := range datasets {
		selected := append([]string{}, columns...)
		selected = append(selected, fmt.Sprintf("%s AS dataset", schema.Quote(dataset)))

		sql, partArgs, err := filtered(sq.Select(selected...).From(paths[dataset]), where).ToSql()
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, partArgs...)
	}

	sql := strings.Join(parts, " UNION ALL ")
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}
	return sql, args, nil
}

// Frames fetches the frames of a clip in frame order. The clip is bound as a
// parameter typed like the clip column.
func Frames(path string, clipColumn string, clip interface{}, frameColumn string, columns []string, where string, limit uint64) (string, []interface{}, error) {
	if clip == nil || clip == "" {
		return "", nil, errors.New("clip is required")
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	b := sq.Select(columns...).From(path).Where(sq.Eq{clipColumn: clip})
	b = filtered(b, where).OrderBy(frameColumn + " ASC")
	if limit > 0 {
		b = b.Limit(limit)
	}
	return b.ToSql()
}
