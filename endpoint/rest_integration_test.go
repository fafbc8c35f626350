package endpoint

import (
	"net/http"
	"net/url"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/autoperception/dataset-explorer/internal/testutil"
	"github.com/autoperception/dataset-explorer/internal/testutil/rest"
	e "github.com/autoperception/dataset-explorer/rest/endpoint/v1"
	"github.com/autoperception/dataset-explorer/rest/models"
	"github.com/autoperception/dataset-explorer/schema"
	"github.com/autoperception/dataset-explorer/types"
)

var _ = Describe("Endpoint", func() {
	BeforeEach(func() {
		if !IntegrationTestsEnabled() {
			Skip("Integration tests are not enabled")
		}
	})

	Describe("RoutesRest()", func() {
		var routes []types.Route

		BeforeEach(func() {
			source := fileSource()
			endpoint := NewEndpointConfigWithLogger(TestLogger(), EngineDuckDb).
				newEndpointWithDeps(session, nil, source, source, nil)
			routes = endpoint.RoutesRest(rest.Prefix)
		})

		Describe("GET /v1/datasets", func() {
			It("Should list the datasets", func() {
				var response models.DatasetsResponse
				code := rest.ExecuteGet(routes, e.DatasetsPathFormat, &response)
				Expect(code).To(Equal(http.StatusOK))
				Expect(response.Datasets).To(HaveLen(2))
				Expect(response.Datasets[0].Name).To(Equal("dump_a"))
			})

			It("Should return 404 when the dataset is not found", func() {
				var response models.ModelError
				code := rest.ExecuteGet(routes, e.DatasetPathFormat, &response, "dump_z")
				Expect(code).To(Equal(http.StatusNotFound))
				Expect(response.Description).To(Equal("dataset not found: 'dump_z'"))
			})
		})

		Describe("GET /v1/tables/{table}/datasets/{dataset}/columns", func() {
			It("Should type the columns from the engine", func() {
				var response models.ColumnsResponse
				rest.ExecuteGet(routes, e.ColumnsPathFormat, &response, "frames", "dump_a")
				Expect(response.Columns).To(HaveLen(8))

				columnTypes := map[string]schema.ColumnType{}
				for _, column := range response.Columns {
					columnTypes[column.Name] = column.Type
				}
				Expect(columnTypes).To(Equal(map[string]schema.ColumnType{
					"clip_id":     schema.TypeString,
					"frame_index": schema.TypeNumber,
					"weather":     schema.TypeString,
					"ego_speed":   schema.TypeNumber,
					"is_night":    schema.TypeBool,
					"population":  schema.TypeString,
					"label":       schema.TypeString,
					"image_path":  schema.TypeString,
				}))
			})

			It("Should list the distinct values of a column", func() {
				var response models.ValuesResponse
				rest.ExecuteGet(routes, e.ColumnValuesPathFormat, &response, "frames", "dump_a", "weather")
				Expect(response.Values).To(Equal([]schema.Option{
					{Label: "rain", Value: "rain"},
					{Label: "sun", Value: "sun"},
				}))
			})
		})

		Describe("POST /v1/filters/compile", func() {
			It("Should compile against the column types", func() {
				var response models.CompileResponse
				rest.ExecutePost(routes, e.CompilePathFormat, `{
					"table": "frames",
					"dataset": "dump_a",
					"filter": {"combinator": "OR", "children": [
						{"column": "ego_speed", "operator": ">", "value": "20"},
						{"column": "weather", "operator": "=", "value": "sun"}
					]}
				}`, &response)
				Expect(response.Where).To(Equal("(ego_speed > 20) OR (weather = 'sun')"))
			})
		})

		Describe("POST /v1/tables/{table}/datasets/{dataset}/rows", func() {
			It("Should return the filtered rows and their count", func() {
				var response models.Rows
				rest.ExecutePost(routes, e.RowsPathFormat, `{
					"columns": ["clip_id", "frame_index", "label"],
					"filter": {"column": "is_night", "operator": "=", "value": true},
					"orderBy": [{"column": "frame_index", "order": "desc"}]
				}`, &response, "frames", "dump_a")
				Expect(response.Count).To(Equal(int64(2)))
				Expect(response.Rows).To(HaveLen(2))
				Expect(response.Rows[0]["label"]).To(Equal("car"))
				Expect(response.Rows[1]["label"]).To(Equal("pedestrian"))
			})

			It("Should restrict rows to the population", func() {
				var response models.Rows
				rest.ExecutePost(routes, e.RowsPathFormat, `{"population": "train", "pageSize": 2}`,
					&response, "frames", "dump_b")
				Expect(response.Count).To(Equal(int64(3)))
				Expect(response.Rows).To(HaveLen(2))
			})

			It("Should reject unknown columns", func() {
				var response models.ModelError
				code := rest.ExecutePost(routes, e.RowsPathFormat, `{"columns": ["secret"]}`,
					&response, "frames", "dump_a")
				Expect(code).To(Equal(http.StatusBadRequest))
				Expect(response.Description).To(Equal("unknown column 'secret'"))
			})
		})

		Describe("POST /v1/tables/{table}/rows", func() {
			It("Should tag the rows of every dataset", func() {
				var response models.Rows
				rest.ExecutePost(routes, e.UnionRowsPathFormat, `{
					"datasets": ["dump_a", "dump_b"],
					"columns": ["label"],
					"filter": {"column": "weather", "operator": "=", "value": "rain"}
				}`, &response, "frames")
				Expect(response.Count).To(Equal(int64(4)))

				datasets := map[interface{}]int{}
				for _, row := range response.Rows {
					datasets[row["dataset"]]++
				}
				Expect(datasets).To(Equal(map[interface{}]int{"dump_a": 2, "dump_b": 2}))
			})
		})

		Describe("POST /v1/tables/{table}/datasets/{dataset}/histogram", func() {
			It("Should count rows per category", func() {
				var response models.HistogramResponse
				rest.ExecutePost(routes, e.HistogramPathFormat, `{"column": "weather"}`,
					&response, "frames", "dump_a")
				Expect(response.Categories).To(Equal([]models.CategoryCount{
					{Value: "rain", Count: 2},
					{Value: "sun", Count: 3},
				}))
			})

			It("Should count rows per numeric bin", func() {
				var response models.HistogramResponse
				rest.ExecutePost(routes, e.HistogramPathFormat, `{"column": "ego_speed", "bins": 3, "min": 0, "max": 30}`,
					&response, "frames", "dump_a")
				Expect(response.Buckets).To(HaveLen(3))
				counts := []int64{response.Buckets[0].Count, response.Buckets[1].Count, response.Buckets[2].Count}
				Expect(counts).To(Equal([]int64{2, 1, 2}))
			})

			It("Should clamp values outside of the range into the edge bins", func() {
				var response models.HistogramResponse
				rest.ExecutePost(routes, e.HistogramPathFormat, `{"column": "ego_speed", "bins": 2, "min": 10, "max": 20}`,
					&response, "frames", "dump_a")
				Expect(response.Buckets).To(HaveLen(2))
				Expect([]int64{response.Buckets[0].Count, response.Buckets[1].Count}).To(Equal([]int64{3, 2}))
			})

			It("Should reject oversized bin counts", func() {
				var response models.ModelError
				code := rest.ExecutePost(routes, e.HistogramPathFormat, `{"column": "ego_speed", "bins": 100000, "min": 0, "max": 30}`,
					&response, "frames", "dump_a")
				Expect(code).To(Equal(http.StatusBadRequest))
			})
		})

		Describe("POST /v1/confusion-matrix", func() {
			It("Should cross tabulate the labels of two dumps", func() {
				var response models.ConfusionMatrixResponse
				rest.ExecutePost(routes, e.ConfusionMatrixPathFormat, `{
					"table": "frames",
					"actual": {"dataset": "dump_a", "column": "label"},
					"predicted": {"dataset": "dump_b", "column": "label"}
				}`, &response)
				Expect(response.Labels).To(Equal([]string{"car", "pedestrian", "truck"}))
				Expect(response.Counts).To(Equal([][]int64{
					{1, 1, 1},
					{0, 1, 0},
					{0, 0, 1},
				}))
				Expect(response.Total).To(Equal(int64(5)))
			})

			It("Should apply the filter to the actual dump", func() {
				var response models.ConfusionMatrixResponse
				rest.ExecutePost(routes, e.ConfusionMatrixPathFormat, `{
					"table": "frames",
					"actual": {"dataset": "dump_a", "column": "label"},
					"predicted": {"dataset": "dump_b", "column": "label"},
					"population": "test"
				}`, &response)
				Expect(response.Labels).To(Equal([]string{"car", "pedestrian"}))
				Expect(response.Total).To(Equal(int64(2)))
			})
		})

		Describe("POST /v1/tables/{table}/frames", func() {
			It("Should return the frames of a clip in order", func() {
				var response models.FramesResponse
				rest.ExecutePost(routes, e.FramesPathFormat, `{
					"dataset": "dump_a",
					"clip": "clip_0001",
					"columns": ["frame_index", "label", "image_path"]
				}`, &response, "frames")
				Expect(response.Frames).To(HaveLen(3))
				for i, frame := range response.Frames {
					Expect(frame.Values["frame_index"]).To(BeNumerically("==", i))
					Expect(frame.Urls).To(BeEmpty())
				}
			})
		})

		Describe("GET /v1/workflows", func() {
			It("Should list the workflow statuses", func() {
				var response models.WorkflowsResponse
				rest.ExecuteGet(routes, e.WorkflowsPathFormat, &response)
				Expect(response.Workflows).To(HaveLen(1))
				Expect(response.Workflows[0].Status).To(Equal("SUCCEEDED"))
			})

			It("Should restrict the statuses to a dataset", func() {
				var response models.WorkflowsResponse
				rest.ExecuteGetWithQuery(routes, e.WorkflowsPathFormat, url.Values{"dataset": {"dump_b"}}, &response)
				Expect(response.Workflows).To(BeEmpty())
			})
		})
	})
})
