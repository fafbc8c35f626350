package endpoint

import (
	"context"
	"net/http"
	"path"

	"github.com/julienschmidt/httprouter"

	"github.com/autoperception/dataset-explorer/catalog"
	"github.com/autoperception/dataset-explorer/config"
	"github.com/autoperception/dataset-explorer/db"
	"github.com/autoperception/dataset-explorer/log"
	"github.com/autoperception/dataset-explorer/schema"
	"github.com/autoperception/dataset-explorer/types"
)

const (
	DatasetsPathFormat        = "/v1/datasets"
	DatasetPathFormat         = "/v1/datasets/%s"
	ColumnsPathFormat         = "/v1/tables/%s/datasets/%s/columns"
	ColumnValuesPathFormat    = "/v1/tables/%s/datasets/%s/columns/%s/values"
	CompilePathFormat         = "/v1/filters/compile"
	RowsPathFormat            = "/v1/tables/%s/datasets/%s/rows"
	UnionRowsPathFormat       = "/v1/tables/%s/rows"
	HistogramPathFormat       = "/v1/tables/%s/datasets/%s/histogram"
	ConfusionMatrixPathFormat = "/v1/confusion-matrix"
	FramesPathFormat          = "/v1/tables/%s/frames"
	WorkflowsPathFormat       = "/v1/workflows"
)

// Catalog resolves datasets and the physical paths of their tables
type Catalog interface {
	Datasets(ctx context.Context) ([]catalog.Dataset, error)
	Dataset(ctx context.Context, name string) (catalog.Dataset, error)
	Table(ctx context.Context, name string) (schema.Table, error)
}

// Metadata serves cached column metadata
type Metadata interface {
	Columns(ctx context.Context, table schema.Table, dataset string) (schema.Columns, error)
	SortedColumns(ctx context.Context, table schema.Table, dataset string) ([]schema.Column, error)
	DistinctValues(ctx context.Context, table schema.Table, dataset string, column string) ([]interface{}, error)
}

// Querier dispatches statements to the query engine
type Querier interface {
	Execute(ctx context.Context, query string, values ...interface{}) (db.ResultSet, error)
}

type StatusReader interface {
	Statuses(ctx context.Context, dataset string) ([]catalog.Workflow, error)
}

// Dependencies of the routes, Workflows and Presigner may be nil
type Dependencies struct {
	Catalog   Catalog
	Metadata  Metadata
	Db        Querier
	Workflows StatusReader
	Presigner db.Presigner
}

type routeList struct {
	Dependencies
	config config.Config
	logger log.Logger
	params func(*http.Request, string) string
}

func httpRouterParams(r *http.Request, name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}

// Routes returns the routes of the enabled dashboards under prefix
func Routes(prefix string, cfg config.Config, deps Dependencies) []types.Route {
	rl := routeList{
		Dependencies: deps,
		config:       cfg,
		logger:       cfg.Logger(),
		params:       httpRouterParams,
	}

	dashboards := cfg.Dashboards()
	var routes []types.Route
	add := func(dashboard config.Dashboards, method string, pattern string, handler http.HandlerFunc) {
		if dashboards.IsEnabled(dashboard) {
			routes = append(routes, types.Route{
				Method:  method,
				Pattern: path.Join(prefix, pattern),
				Handler: handler,
			})
		}
	}

	add(config.Catalog, http.MethodGet, "/v1/datasets", rl.GetDatasets)
	add(config.Catalog, http.MethodGet, "/v1/datasets/:dataset", rl.GetDataset)
	add(config.Filter, http.MethodGet, "/v1/tables/:table/datasets/:dataset/columns", rl.GetColumns)
	add(config.Filter, http.MethodGet, "/v1/tables/:table/datasets/:dataset/columns/:column/values", rl.GetColumnValues)
	add(config.Filter, http.MethodPost, "/v1/filters/compile", rl.CompileFilter)
	add(config.Filter, http.MethodPost, "/v1/tables/:table/datasets/:dataset/rows", rl.QueryRows)
	add(config.Filter, http.MethodPost, "/v1/tables/:table/rows", rl.QueryUnionRows)
	add(config.Histogram, http.MethodPost, "/v1/tables/:table/datasets/:dataset/histogram", rl.Histogram)
	add(config.ConfusionMatrix, http.MethodPost, "/v1/confusion-matrix", rl.ConfusionMatrix)
	add(config.Frames, http.MethodPost, "/v1/tables/:table/frames", rl.Frames)
	if deps.Workflows != nil {
		add(config.Workflows, http.MethodGet, "/v1/workflows", rl.GetWorkflows)
	}
	return routes
}
