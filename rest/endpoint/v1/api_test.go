package endpoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/autoperception/dataset-explorer/catalog"
	"github.com/autoperception/dataset-explorer/config"
	"github.com/autoperception/dataset-explorer/db"
	"github.com/autoperception/dataset-explorer/log"
	m "github.com/autoperception/dataset-explorer/rest/models"
	"github.com/autoperception/dataset-explorer/schema"
)

var frameColumns = []db.ColumnInfo{
	{Name: "clip_id", Type: "varchar"},
	{Name: "frame_index", Type: "integer"},
	{Name: "weather", Type: "varchar"},
	{Name: "ego_speed", Type: "double"},
	{Name: "is_night", Type: "boolean"},
	{Name: "population", Type: "varchar"},
	{Name: "label", Type: "varchar"},
	{Name: "image_path", Type: "varchar"},
}

type fixture struct {
	session   *db.SessionMock
	presigner *db.PresignerMock
	workflows *catalog.SourceMock
	routes    http.Handler
}

func newFixture(dashboards config.Dashboards) *fixture {
	logger := log.NewZapLogger(zap.NewNop())

	cfg := config.NewConfigMock()
	cfg.On("Naming").Return(config.NewDefaultNaming())
	cfg.On("PopulationColumn").Return("population")
	cfg.On("RowLimit").Return(1000)
	cfg.On("PresignExpiry").Return(15 * time.Minute)
	cfg.On("Dashboards").Return(dashboards)
	cfg.On("Logger").Return(log.Logger(logger))

	session := db.NewSessionMock()
	session.WithRows("SELECT * FROM perception.frames_dump_a LIMIT 1", frameColumns)
	session.WithRows("SELECT * FROM perception.frames_dump_b LIMIT 1", frameColumns)

	source := catalog.NewFileSource([]catalog.Dataset{
		{Name: "dump_a", Tables: map[string]string{"frames": "perception.frames_dump_a"}},
		{Name: "dump_b", Tables: map[string]string{"frames": "perception.frames_dump_b"}},
	}, nil)

	client := db.NewDbWithSession(session, db.NewQueryOptions().WithDatabase("perception"), logger)
	f := &fixture{
		session:   session,
		presigner: &db.PresignerMock{},
		workflows: &catalog.SourceMock{},
	}

	router := httprouter.New()
	for _, route := range Routes("", cfg, Dependencies{
		Catalog:   catalog.NewRegistry(source, logger),
		Metadata:  schema.NewCache(client, 100, logger),
		Db:        client,
		Workflows: catalog.NewWorkflows(f.workflows),
		Presigner: f.presigner,
	}) {
		router.Handler(route.Method, route.Pattern, route.Handler)
	}
	f.routes = router
	return f
}

func (f *fixture) do(method string, path string, body string, response interface{}) int {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	r := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	f.routes.ServeHTTP(w, r)

	if response != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), response); err != nil {
			panic(err)
		}
	}
	return w.Code
}

func TestGetDatasets(t *testing.T) {
	f := newFixture(config.AllDashboards)

	var response m.DatasetsResponse
	code := f.do(http.MethodGet, "/v1/datasets", "", &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, response.Datasets, 2)
	assert.Equal(t, "dump_a", response.Datasets[0].Name)

	var dataset catalog.Dataset
	code = f.do(http.MethodGet, "/v1/datasets/dump_b", "", &dataset)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "perception.frames_dump_b", dataset.Tables["frames"])

	var modelError m.ModelError
	code = f.do(http.MethodGet, "/v1/datasets/dump_c", "", &modelError)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "dataset not found: 'dump_c'", modelError.Description)
}

func TestGetColumns(t *testing.T) {
	f := newFixture(config.AllDashboards)

	var response m.ColumnsResponse
	code := f.do(http.MethodGet, "/v1/tables/frames/datasets/dump_a/columns", "", &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, response.Columns, len(frameColumns))

	speed := response.Columns[1]
	assert.Equal(t, "ego_speed", speed.Name)
	assert.Equal(t, "Ego Speed", speed.Label)
	assert.Equal(t, schema.TypeNumber, speed.Type)
	assert.Contains(t, speed.Operators, schema.Option{Label: ">=", Value: ">="})

	code = f.do(http.MethodGet, "/v1/tables/frames/datasets/dump_c/columns", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code = f.do(http.MethodGet, "/v1/tables/lidar/datasets/dump_a/columns", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetColumnValues(t *testing.T) {
	f := newFixture(config.AllDashboards)
	f.session.WithRows("SELECT weather FROM perception.frames_dump_a GROUP BY weather ORDER BY weather LIMIT 100",
		[]db.ColumnInfo{{Name: "weather", Type: "varchar"}},
		map[string]interface{}{"weather": nil},
		map[string]interface{}{"weather": "rain"},
		map[string]interface{}{"weather": "sun"})

	var response m.ValuesResponse
	code := f.do(http.MethodGet, "/v1/tables/frames/datasets/dump_a/columns/weather/values", "", &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []schema.Option{
		{Label: "NULL", Value: nil},
		{Label: "rain", Value: "rain"},
		{Label: "sun", Value: "sun"},
	}, response.Values)

	var modelError m.ModelError
	code = f.do(http.MethodGet, "/v1/tables/frames/datasets/dump_a/columns/speed/values", "", &modelError)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "column 'speed' not found in table", modelError.Description)
}

func TestCompileFilter(t *testing.T) {
	f := newFixture(config.AllDashboards)

	var response m.CompileResponse
	code := f.do(http.MethodPost, "/v1/filters/compile", `{
		"filter": {"combinator": "AND", "children": [
			{"column": "x", "operator": "=", "value": 5},
			{"column": "weather", "operator": "=", "value": "rain"},
			{"column": "gone", "operator": "=", "value": 1, "removed": true}
		]}
	}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "(x = 5) AND (weather = 'rain')", response.Where)

	code = f.do(http.MethodPost, "/v1/filters/compile", `{
		"table": "frames",
		"dataset": "dump_a",
		"filter": {"column": "frame_index", "operator": "in", "value": ["1", "2"]},
		"population": "train"
	}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "(frame_index IN (1, 2)) AND (population = 'train')", response.Where)

	code = f.do(http.MethodPost, "/v1/filters/compile", `{
		"table": "frames",
		"dataset": "dump_a",
		"filter": {"column": "frame_index", "operator": "in", "value": [9007199254740993, 2.5]}
	}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "frame_index IN (9007199254740993, 2.5)", response.Where)

	code = f.do(http.MethodPost, "/v1/filters/compile", `{
		"filter": {"column": "track_id", "operator": "=", "value": 9007199254740993}
	}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "track_id = 9007199254740993", response.Where)

	var modelError m.ModelError
	code = f.do(http.MethodPost, "/v1/filters/compile", `{
		"table": "frames",
		"dataset": "dump_a",
		"filter": {"column": "ego_speed", "operator": "=", "value": "fast"}
	}`, &modelError)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, `column ego_speed expects a number, got "fast"`, modelError.Description)

	code = f.do(http.MethodPost, "/v1/filters/compile", `{"table": "frames"}`, &modelError)
	assert.Equal(t, http.StatusBadRequest, code)

	code = f.do(http.MethodPost, "/v1/filters/compile", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestQueryRows(t *testing.T) {
	f := newFixture(config.AllDashboards)
	f.session.WithRows("SELECT clip_id, label FROM perception.frames_dump_a WHERE ((is_night = TRUE) AND (population = 'test')) ORDER BY clip_id ASC LIMIT 2",
		[]db.ColumnInfo{{Name: "clip_id", Type: "varchar"}, {Name: "label", Type: "varchar"}},
		map[string]interface{}{"clip_id": "clip_0002", "label": "pedestrian"},
		map[string]interface{}{"clip_id": "clip_0002", "label": "car"})
	f.session.WithRows("SELECT COUNT(*) AS count FROM perception.frames_dump_a WHERE ((is_night = TRUE) AND (population = 'test'))",
		[]db.ColumnInfo{{Name: "count", Type: "bigint"}},
		map[string]interface{}{"count": int64(2)})

	var response m.Rows
	code := f.do(http.MethodPost, "/v1/tables/frames/datasets/dump_a/rows", `{
		"columns": ["clip_id", "label"],
		"filter": {"column": "is_night", "operator": "=", "value": true},
		"population": "test",
		"orderBy": [{"column": "clip_id"}],
		"pageSize": 2
	}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "mock-query", response.QueryID)
	assert.Equal(t, int64(2), response.Count)
	assert.Len(t, response.Rows, 2)
	assert.Equal(t, "pedestrian", response.Rows[0]["label"])
}

func TestQueryRowsEngineError(t *testing.T) {
	f := newFixture(config.AllDashboards)
	f.session.On("ExecuteIter", "SELECT * FROM perception.frames_dump_a LIMIT 1000", mock.Anything, mock.Anything).
		Return(nil, &db.QueryFailedError{QueryID: "q-9", State: "FAILED", Reason: "SYNTAX_ERROR"})
	f.session.WithRows("SELECT COUNT(*) AS count FROM perception.frames_dump_a",
		[]db.ColumnInfo{{Name: "count", Type: "bigint"}},
		map[string]interface{}{"count": int64(5)})

	var modelError m.ModelError
	code := f.do(http.MethodPost, "/v1/tables/frames/datasets/dump_a/rows", `{}`, &modelError)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "q-9", modelError.QueryID)
	assert.Equal(t, "query q-9 failed: SYNTAX_ERROR", modelError.Description)
}

func TestQueryUnionRows(t *testing.T) {
	f := newFixture(config.AllDashboards)
	f.session.WithRows("SELECT label, 'dump_a' AS dataset FROM perception.frames_dump_a WHERE (weather = 'rain') UNION ALL "+
		"SELECT label, 'dump_b' AS dataset FROM perception.frames_dump_b WHERE (weather = 'rain') LIMIT 1000",
		[]db.ColumnInfo{{Name: "label", Type: "varchar"}, {Name: "dataset", Type: "varchar"}},
		map[string]interface{}{"label": "pedestrian", "dataset": "dump_a"},
		map[string]interface{}{"label": "pedestrian", "dataset": "dump_b"},
		map[string]interface{}{"label": "car", "dataset": "dump_a"})

	var response m.Rows
	code := f.do(http.MethodPost, "/v1/tables/frames/rows", `{
		"datasets": ["dump_a", "dump_b"],
		"columns": ["label"],
		"filter": {"column": "weather", "operator": "=", "value": "rain"}
	}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(3), response.Count)
	assert.Equal(t, "dump_b", response.Rows[1]["dataset"])

	var modelError m.ModelError
	code = f.do(http.MethodPost, "/v1/tables/frames/rows", `{"datasets": ["dump_a", "dump_z"]}`, &modelError)
	assert.Equal(t, http.StatusNotFound, code)

	code = f.do(http.MethodPost, "/v1/tables/frames/rows", `{"datasets": []}`, &modelError)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHistogram(t *testing.T) {
	f := newFixture(config.AllDashboards)
	f.session.WithRows("SELECT weather AS bucket, COUNT(*) AS count FROM perception.frames_dump_a GROUP BY weather ORDER BY weather",
		[]db.ColumnInfo{{Name: "bucket", Type: "varchar"}, {Name: "count", Type: "bigint"}},
		map[string]interface{}{"bucket": "rain", "count": int64(2)},
		map[string]interface{}{"bucket": "sun", "count": int64(3)})
	f.session.WithRows("SELECT CAST(LEAST(GREATEST(FLOOR((ego_speed - 0) / 10), 0), 2) AS INTEGER) AS bucket, COUNT(*) AS count "+
		"FROM perception.frames_dump_a WHERE ego_speed IS NOT NULL AND (population = 'train') GROUP BY 1 ORDER BY 1",
		[]db.ColumnInfo{{Name: "bucket", Type: "integer"}, {Name: "count", Type: "bigint"}},
		map[string]interface{}{"bucket": int64(0), "count": int64(2)},
		map[string]interface{}{"bucket": int64(1), "count": int64(1)})

	var response m.HistogramResponse
	code := f.do(http.MethodPost, "/v1/tables/frames/datasets/dump_a/histogram", `{"column": "weather"}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []m.CategoryCount{{Value: "rain", Count: 2}, {Value: "sun", Count: 3}}, response.Categories)

	response = m.HistogramResponse{}
	code = f.do(http.MethodPost, "/v1/tables/frames/datasets/dump_a/histogram",
		`{"column": "ego_speed", "bins": 3, "min": 0, "max": 30, "population": "train"}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, response.Buckets, 3)
	assert.Equal(t, int64(2), response.Buckets[0].Count)
	assert.Equal(t, int64(1), response.Buckets[1].Count)
	assert.Equal(t, int64(0), response.Buckets[2].Count)
	assert.Equal(t, float64(30), response.Buckets[2].Hi)

	var tooManyBins m.ModelError
	code = f.do(http.MethodPost, "/v1/tables/frames/datasets/dump_a/histogram",
		`{"column": "ego_speed", "bins": 100000, "min": 0, "max": 30}`, &tooManyBins)
	assert.Equal(t, http.StatusBadRequest, code)

	var modelError m.ModelError
	code = f.do(http.MethodPost, "/v1/tables/frames/datasets/dump_a/histogram", `{}`, &modelError)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Column is a required field", modelError.Description)
}

func TestConfusionMatrix(t *testing.T) {
	f := newFixture(config.AllDashboards)
	f.session.WithRows("SELECT l.label AS actual, r.label AS predicted, COUNT(*) AS count "+
		"FROM (SELECT * FROM perception.frames_dump_a WHERE (weather = 'sun')) AS l "+
		"JOIN perception.frames_dump_b r ON l.clip_id = r.clip_id AND l.frame_index = r.frame_index "+
		"GROUP BY 1, 2 ORDER BY 1, 2",
		[]db.ColumnInfo{{Name: "actual", Type: "varchar"}, {Name: "predicted", Type: "varchar"}, {Name: "count", Type: "bigint"}},
		map[string]interface{}{"actual": "car", "predicted": "car", "count": int64(1)},
		map[string]interface{}{"actual": "car", "predicted": "truck", "count": int64(1)},
		map[string]interface{}{"actual": "truck", "predicted": "truck", "count": int64(1)})

	var response m.ConfusionMatrixResponse
	code := f.do(http.MethodPost, "/v1/confusion-matrix", `{
		"table": "frames",
		"actual": {"dataset": "dump_a", "column": "label"},
		"predicted": {"dataset": "dump_b", "column": "label"},
		"filter": {"column": "weather", "operator": "=", "value": "sun"}
	}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "mock-query", response.QueryID)
	assert.Equal(t, []string{"car", "truck"}, response.Labels)
	assert.Equal(t, [][]int64{{1, 1}, {0, 1}}, response.Counts)
	assert.Equal(t, int64(3), response.Total)

	code = f.do(http.MethodPost, "/v1/confusion-matrix", `{
		"table": "frames",
		"actual": {"dataset": "dump_a", "column": "label"},
		"predicted": {"dataset": "dump_z", "column": "label"}
	}`, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFrames(t *testing.T) {
	f := newFixture(config.AllDashboards)
	f.session.On("ExecuteIter",
		"SELECT frame_index, image_path FROM perception.frames_dump_a WHERE clip_id = ? ORDER BY frame_index ASC LIMIT 1000",
		mock.Anything, []interface{}{"clip_0001"}).
		Return(db.NewResultSet("q-frames", []db.ColumnInfo{{Name: "frame_index", Type: "integer"}, {Name: "image_path", Type: "varchar"}},
			[]map[string]interface{}{
				{"frame_index": int64(0), "image_path": "s3://frames/clip_0001/000000.jpg"},
				{"frame_index": int64(1), "image_path": nil},
			}), nil)
	f.presigner.On("PresignGetObject", "s3://frames/clip_0001/000000.jpg", 15*time.Minute).
		Return("https://frames.s3.amazonaws.com/clip_0001/000000.jpg?X-Amz-Signature=abc", nil)

	var response m.FramesResponse
	code := f.do(http.MethodPost, "/v1/tables/frames/frames", `{
		"dataset": "dump_a",
		"clip": "clip_0001",
		"columns": ["frame_index", "image_path"]
	}`, &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "clip_0001", response.Clip)
	assert.Len(t, response.Frames, 2)
	assert.Equal(t, "https://frames.s3.amazonaws.com/clip_0001/000000.jpg?X-Amz-Signature=abc", response.Frames[0].Urls["image_path"])
	assert.Empty(t, response.Frames[1].Urls)
	f.presigner.AssertExpectations(t)
}

func TestFramesPresignError(t *testing.T) {
	f := newFixture(config.AllDashboards)
	f.session.WithRows("SELECT * FROM perception.frames_dump_a WHERE clip_id = ? ORDER BY frame_index ASC LIMIT 1000",
		frameColumns,
		map[string]interface{}{"image_path": "s3://frames/a.jpg"})
	f.presigner.On("PresignGetObject", "s3://frames/a.jpg", 15*time.Minute).Return("", errors.New("no credentials"))

	var modelError m.ModelError
	code := f.do(http.MethodPost, "/v1/tables/frames/frames", `{"dataset": "dump_a", "clip": "clip_0001"}`, &modelError)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "unable to presign frame objects", modelError.Description)
}

func TestGetWorkflows(t *testing.T) {
	f := newFixture(config.AllDashboards)
	older := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	f.workflows.On("Workflows", "dump_a").Return([]catalog.Workflow{
		{ID: "wf-1", Dataset: "dump_a", Status: "SUCCEEDED", Updated: older},
		{ID: "wf-2", Dataset: "dump_a", Status: "RUNNING", Updated: newer},
	}, nil)

	var response m.WorkflowsResponse
	code := f.do(http.MethodGet, "/v1/workflows?dataset=dump_a", "", &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, response.Workflows, 2)
	assert.Equal(t, "wf-2", response.Workflows[0].ID)
}

func TestDisabledDashboards(t *testing.T) {
	f := newFixture(config.Catalog | config.Filter)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/v1/datasets", "", nil))
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/v1/tables/frames/datasets/dump_a/histogram", `{"column": "weather"}`, nil))
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/workflows", "", nil))
}
