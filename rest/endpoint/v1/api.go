package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/autoperception/dataset-explorer/db"
	"github.com/autoperception/dataset-explorer/filter"
	"github.com/autoperception/dataset-explorer/query"
	e "github.com/autoperception/dataset-explorer/rest/errors"
	m "github.com/autoperception/dataset-explorer/rest/models"
	t "github.com/autoperception/dataset-explorer/rest/translator"
	"github.com/autoperception/dataset-explorer/schema"
)

const (
	DefaultClipColumn  = "clip_id"
	DefaultFrameColumn = "frame_index"
)

// DefaultJoinKeys identify a frame across dumps
var DefaultJoinKeys = []string{DefaultClipColumn, DefaultFrameColumn}

func (s *routeList) GetDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.Catalog.Datasets(r.Context())
	if err != nil {
		s.respondWithError(w, "unable to list datasets", err)
		return
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.DatasetsResponse{Datasets: datasets})
}

func (s *routeList) GetDataset(w http.ResponseWriter, r *http.Request) {
	name := s.params(r, "dataset")

	dataset, err := s.Catalog.Dataset(r.Context(), name)
	if err != nil {
		s.respondWithError(w, "unable to read dataset", err, "dataset", name)
		return
	}

	RespondJSONObjectWithCode(w, http.StatusOK, dataset)
}

func (s *routeList) GetColumns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableName := s.params(r, "table")
	datasetName := s.params(r, "dataset")

	table, err := s.Catalog.Table(ctx, tableName)
	if err != nil {
		s.respondWithError(w, "unable to find table", err, "table", tableName)
		return
	}

	columns, err := s.Metadata.SortedColumns(ctx, table, datasetName)
	if err != nil {
		s.respondWithError(w, "unable to describe table", err,
			"table", tableName,
			"dataset", datasetName)
		return
	}

	naming := s.config.Naming()
	definitions := make([]m.ColumnDefinition, len(columns))
	for i, column := range columns {
		definitions[i] = m.ColumnDefinition{
			Name:      column.Name,
			Label:     naming.ToLabel(column.Name),
			Type:      column.Type,
			Operators: column.OperatorOptions(),
		}
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.ColumnsResponse{
		Table:   tableName,
		Dataset: datasetName,
		Columns: definitions,
	})
}

func (s *routeList) GetColumnValues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableName := s.params(r, "table")
	datasetName := s.params(r, "dataset")
	columnName := s.params(r, "column")

	table, err := s.Catalog.Table(ctx, tableName)
	if err != nil {
		s.respondWithError(w, "unable to find table", err, "table", tableName)
		return
	}

	columns, err := s.Metadata.Columns(ctx, table, datasetName)
	if err != nil {
		s.respondWithError(w, "unable to describe table", err,
			"table", tableName,
			"dataset", datasetName)
		return
	}

	if _, err := columns.Get(columnName); err != nil {
		s.respondWithError(w, "unable to read column values",
			e.NewNotFoundError(fmt.Sprintf("column '%s' not found in table", columnName)),
			"table", tableName,
			"column", columnName)
		return
	}

	values, err := s.Metadata.DistinctValues(ctx, table, datasetName, columnName)
	if err != nil {
		s.respondWithError(w, "unable to read column values", err,
			"table", tableName,
			"dataset", datasetName,
			"column", columnName)
		return
	}

	options := make([]schema.Option, len(values))
	for i, value := range values {
		label := "NULL"
		if value != nil {
			label = fmt.Sprint(value)
		}
		options[i] = schema.Option{Label: label, Value: value}
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.ValuesResponse{Column: columnName, Values: options})
}

func (s *routeList) CompileFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request m.CompileRequest
	if err := parseAndValidatePayload(&request, r); err != nil {
		s.respondWithError(w, "unable to parse payload", err)
		return
	}

	var (
		where string
		err   error
	)
	if request.Table != "" {
		var translator t.APITranslator
		translator, err = s.translator(ctx, request.Table, request.Dataset)
		if err != nil {
			s.respondWithError(w, "unable to describe table", err,
				"table", request.Table,
				"dataset", request.Dataset)
			return
		}
		where, err = translator.ToWhere(request.Filter, request.Population)
	} else {
		where, err = compileUntyped(request.Filter, s.config.PopulationColumn(), request.Population)
	}

	if err != nil {
		s.respondWithError(w, "unable to compile filter", err)
		return
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.CompileResponse{Where: where})
}

func (s *routeList) QueryRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableName := s.params(r, "table")
	datasetName := s.params(r, "dataset")

	var request m.RowsRequest
	if err := parseAndValidatePayload(&request, r); err != nil {
		s.respondWithError(w, "unable to parse payload", err)
		return
	}

	translator, err := s.translator(ctx, tableName, datasetName)
	if err != nil {
		s.respondWithError(w, "unable to describe table", err,
			"table", tableName,
			"dataset", datasetName)
		return
	}

	where, err := translator.ToWhere(request.Filter, request.Population)
	if err != nil {
		s.respondWithError(w, "unable to compile filter", err)
		return
	}

	selectQuery, selectValues, err := translator.ToSelect(request, where, uint64(s.config.RowLimit()))
	if err != nil {
		s.respondWithError(w, "unable to translate to select query", err)
		return
	}

	countQuery, countValues, err := translator.ToCount(where)
	if err != nil {
		s.respondWithError(w, "unable to translate to count query", err)
		return
	}

	var (
		rows  db.ResultSet
		count int64
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		rows, err = s.Db.Execute(groupCtx, selectQuery, selectValues...)
		return err
	})
	group.Go(func() error {
		result, err := s.Db.Execute(groupCtx, countQuery, countValues...)
		if err != nil {
			return err
		}
		if len(result.Values()) == 0 {
			return nil
		}
		count, err = query.RowCount(result.Values()[0])
		return err
	})

	if err := group.Wait(); err != nil {
		s.respondWithError(w, "unable to query rows", err,
			"table", tableName,
			"dataset", datasetName)
		return
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.Rows{
		QueryID: rows.QueryID(),
		Rows:    rows.Values(),
		Count:   count,
	})
}

// QueryUnionRows fetches rows from several datasets at once, each row
// tagged with its dataset
func (s *routeList) QueryUnionRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableName := s.params(r, "table")

	var request m.UnionRowsRequest
	if err := parseAndValidatePayload(&request, r); err != nil {
		s.respondWithError(w, "unable to parse payload", err)
		return
	}

	var mu sync.Mutex
	translators := make(map[string]t.APITranslator, len(request.Datasets))
	group, groupCtx := errgroup.WithContext(ctx)
	for _, dataset := range request.Datasets {
		dataset := dataset
		group.Go(func() error {
			translator, err := s.translator(groupCtx, tableName, dataset)
			if err != nil {
				return err
			}
			mu.Lock()
			translators[dataset] = translator
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		s.respondWithError(w, "unable to describe table", err, "table", tableName)
		return
	}

	unionQuery, values, err := t.ToUnion(translators, request, uint64(s.config.RowLimit()))
	if err != nil {
		s.respondWithError(w, "unable to translate to union query", err)
		return
	}

	result, err := s.Db.Execute(ctx, unionQuery, values...)
	if err != nil {
		s.respondWithError(w, "unable to query rows", err,
			"table", tableName,
			"datasets", request.Datasets)
		return
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.Rows{
		QueryID: result.QueryID(),
		Rows:    result.Values(),
		Count:   int64(len(result.Values())),
	})
}

func (s *routeList) Histogram(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableName := s.params(r, "table")
	datasetName := s.params(r, "dataset")

	var request m.HistogramRequest
	if err := parseAndValidatePayload(&request, r); err != nil {
		s.respondWithError(w, "unable to parse payload", err)
		return
	}

	translator, err := s.translator(ctx, tableName, datasetName)
	if err != nil {
		s.respondWithError(w, "unable to describe table", err,
			"table", tableName,
			"dataset", datasetName)
		return
	}

	where, err := translator.ToWhere(request.Filter, request.Population)
	if err != nil {
		s.respondWithError(w, "unable to compile filter", err)
		return
	}

	histogramQuery, values, err := translator.ToHistogram(request, where)
	if err != nil {
		s.respondWithError(w, "unable to translate to histogram query", err)
		return
	}

	result, err := s.Db.Execute(ctx, histogramQuery, values...)
	if err != nil {
		s.respondWithError(w, "unable to query histogram", err,
			"table", tableName,
			"dataset", datasetName,
			"column", request.Column)
		return
	}

	response := m.HistogramResponse{Column: request.Column}
	if request.Bins > 0 {
		response.Buckets, err = query.NewBuckets(result.Values(), *request.Min, *request.Max, request.Bins)
	} else {
		response.Categories, err = categories(result.Values())
	}
	if err != nil {
		s.respondWithError(w, "unable to read histogram", err)
		return
	}

	RespondJSONObjectWithCode(w, http.StatusOK, response)
}

func (s *routeList) ConfusionMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request m.ConfusionMatrixRequest
	if err := parseAndValidatePayload(&request, r); err != nil {
		s.respondWithError(w, "unable to parse payload", err)
		return
	}
	if len(request.JoinKeys) == 0 {
		request.JoinKeys = DefaultJoinKeys
	}

	var actual, predicted t.APITranslator
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		actual, err = s.translator(groupCtx, request.Table, request.Actual.Dataset)
		return err
	})
	group.Go(func() error {
		var err error
		predicted, err = s.translator(groupCtx, request.Table, request.Predicted.Dataset)
		return err
	})
	if err := group.Wait(); err != nil {
		s.respondWithError(w, "unable to describe table", err, "table", request.Table)
		return
	}

	where, err := actual.ToWhere(request.Filter, request.Population)
	if err != nil {
		s.respondWithError(w, "unable to compile filter", err)
		return
	}

	matrixQuery, values, err := actual.ToConfusionMatrix(predicted, request, where)
	if err != nil {
		s.respondWithError(w, "unable to translate to confusion matrix query", err)
		return
	}

	result, err := s.Db.Execute(ctx, matrixQuery, values...)
	if err != nil {
		s.respondWithError(w, "unable to query confusion matrix", err,
			"table", request.Table,
			"actual", request.Actual.Dataset,
			"predicted", request.Predicted.Dataset)
		return
	}

	matrix, err := query.NewMatrix(result.Values())
	if err != nil {
		s.respondWithError(w, "unable to read confusion matrix", err)
		return
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.ConfusionMatrixResponse{
		QueryID: result.QueryID(),
		Matrix:  matrix,
	})
}

func (s *routeList) Frames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableName := s.params(r, "table")

	var request m.FramesRequest
	if err := parseAndValidatePayload(&request, r); err != nil {
		s.respondWithError(w, "unable to parse payload", err)
		return
	}
	if request.ClipColumn == "" {
		request.ClipColumn = DefaultClipColumn
	}
	if request.FrameColumn == "" {
		request.FrameColumn = DefaultFrameColumn
	}

	translator, err := s.translator(ctx, tableName, request.Dataset)
	if err != nil {
		s.respondWithError(w, "unable to describe table", err,
			"table", tableName,
			"dataset", request.Dataset)
		return
	}

	where, err := translator.ToWhere(request.Filter, "")
	if err != nil {
		s.respondWithError(w, "unable to compile filter", err)
		return
	}

	framesQuery, values, err := translator.ToFrames(request, where, uint64(s.config.RowLimit()))
	if err != nil {
		s.respondWithError(w, "unable to translate to frames query", err)
		return
	}

	result, err := s.Db.Execute(ctx, framesQuery, values...)
	if err != nil {
		s.respondWithError(w, "unable to query frames", err,
			"table", tableName,
			"dataset", request.Dataset,
			"clip", request.Clip)
		return
	}

	frames := make([]m.Frame, len(result.Values()))
	for i, row := range result.Values() {
		frames[i], err = s.frame(ctx, row)
		if err != nil {
			s.respondWithError(w, "unable to presign frame objects", err, "clip", request.Clip)
			return
		}
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.FramesResponse{Clip: request.Clip, Frames: frames})
}

func (s *routeList) GetWorkflows(w http.ResponseWriter, r *http.Request) {
	dataset := r.URL.Query().Get("dataset")

	workflows, err := s.Workflows.Statuses(r.Context(), dataset)
	if err != nil {
		s.respondWithError(w, "unable to list workflows", err, "dataset", dataset)
		return
	}

	RespondJSONObjectWithCode(w, http.StatusOK, m.WorkflowsResponse{Workflows: workflows})
}

// translator resolves a table's dataset into the physical path and columns
// requests are checked against
func (s *routeList) translator(ctx context.Context, tableName string, dataset string) (t.APITranslator, error) {
	table, err := s.Catalog.Table(ctx, tableName)
	if err != nil {
		return t.APITranslator{}, err
	}

	path, err := table.Path(dataset)
	if err != nil {
		return t.APITranslator{}, err
	}

	columns, err := s.Metadata.Columns(ctx, table, dataset)
	if err != nil {
		return t.APITranslator{}, err
	}

	return t.APITranslator{
		Path:             path,
		Columns:          columns,
		PopulationColumn: s.config.PopulationColumn(),
	}, nil
}

// frame presigns the s3:// paths of a row when a presigner is configured
func (s *routeList) frame(ctx context.Context, row map[string]interface{}) (m.Frame, error) {
	frame := m.Frame{Values: row}
	if s.Presigner == nil {
		return frame, nil
	}

	for key, value := range row {
		path, ok := value.(string)
		if !ok || !db.IsS3Path(path) {
			continue
		}

		url, err := s.Presigner.PresignGetObject(ctx, path, s.config.PresignExpiry())
		if err != nil {
			return m.Frame{}, err
		}
		if frame.Urls == nil {
			frame.Urls = make(map[string]string)
		}
		frame.Urls[key] = url
	}
	return frame, nil
}

// respondWithError logs the failure and writes the error. Errors without a
// client facing status are reported with msg only.
func (s *routeList) respondWithError(w http.ResponseWriter, msg string, err error, keysAndValues ...interface{}) {
	code := e.StatusCode(err)
	s.logger.With(keysAndValues...).With("error", err).Error(msg)

	if code == http.StatusInternalServerError {
		RespondWithError(w, errors.New(msg), code)
		return
	}
	RespondWithError(w, err, code)
}

func compileUntyped(model *m.FilterNode, populationColumn string, population string) (string, error) {
	node, err := t.ToNode(model)
	if err != nil {
		return "", err
	}

	where, err := filter.Compile(node, nil)
	if err != nil {
		return "", e.NewBadRequestError(err.Error())
	}
	return filter.Where(where, filter.Population(populationColumn, population)), nil
}

func categories(rows []map[string]interface{}) ([]m.CategoryCount, error) {
	result := make([]m.CategoryCount, len(rows))
	for i, row := range rows {
		count, err := query.RowCount(row)
		if err != nil {
			return nil, err
		}
		result[i] = m.CategoryCount{Value: row["bucket"], Count: count}
	}
	return result, nil
}

func parseAndValidatePayload(obj interface{}, r *http.Request) error {
	decoder := json.NewDecoder(r.Body)
	// keeps integers above 2^53 exact in filter values
	decoder.UseNumber()
	if err := decoder.Decode(obj); err != nil {
		return e.NewBadRequestError(fmt.Sprintf("invalid json payload: %v", err))
	}

	return t.Validate(obj)
}
