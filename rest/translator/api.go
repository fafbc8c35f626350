package translator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/autoperception/dataset-explorer/filter"
	e "github.com/autoperception/dataset-explorer/rest/errors"
	m "github.com/autoperception/dataset-explorer/rest/models"
	"github.com/autoperception/dataset-explorer/query"
	"github.com/autoperception/dataset-explorer/schema"
)

var (
	inputValidator *validator.Validate
	trans          ut.Translator
)

func init() {
	inputValidator = validator.New()

	uni := ut.New(en.New(), en.New())
	trans, _ = uni.GetTranslator("en")

	_ = enTranslations.RegisterDefaultTranslations(inputValidator, trans)

	_ = inputValidator.RegisterTranslation("required", trans, func(ut ut.Translator) error {
		return ut.Add("required", "{0} is a required field", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("required", fe.Field())
		return t
	})

	_ = inputValidator.RegisterTranslation("oneof", trans, func(ut ut.Translator) error {
		return ut.Add("oneof", "{0} must be one of [{1}]", true) // see universal-translator for details
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("oneof", fe.Field(), fe.Param())
		return t
	})
}

// Validate checks a request payload against its validate tags
func Validate(obj interface{}) error {
	if err := inputValidator.Struct(obj); err != nil {
		return e.TranslateValidatorError(err, trans)
	}
	return nil
}

// ToNode converts a filter tree payload into a filter tree
func ToNode(model *m.FilterNode) (*filter.Node, error) {
	if model == nil {
		return nil, nil
	}

	if model.Combinator != "" || len(model.Children) > 0 {
		combinator, err := filter.ParseCombinator(model.Combinator)
		if err != nil {
			return nil, e.NewBadRequestError(err.Error())
		}

		children := make([]*filter.Node, 0, len(model.Children))
		for _, child := range model.Children {
			node, err := ToNode(child)
			if err != nil {
				return nil, err
			}
			if node != nil {
				children = append(children, node)
			}
		}

		group := filter.Group(combinator, children...)
		group.Removed = model.Removed
		return group, nil
	}

	if model.Column == "" {
		return nil, e.NewBadRequestError("filter column is required")
	}

	op, err := schema.ParseOperator(model.Operator)
	if err != nil {
		return nil, e.NewBadRequestError(err.Error())
	}

	leaf := filter.Leaf(model.Column, op, model.Value)
	leaf.Removed = model.Removed
	return leaf, nil
}

// APITranslator serves as a translator for going from request objects to SQL statements over one
// physical table, checking every referenced column against the table's columns.
type APITranslator struct {
	Path             string `validate:"required"`
	Columns          schema.Columns
	PopulationColumn string
}

// ToWhere compiles a filter tree and a population into a WHERE fragment
func (a APITranslator) ToWhere(model *m.FilterNode, population string) (string, error) {
	node, err := ToNode(model)
	if err != nil {
		return "", err
	}

	if err := a.checkNode(node); err != nil {
		return "", err
	}

	where, err := filter.Compile(node, a.Columns)
	if err != nil {
		return "", e.NewBadRequestError(err.Error())
	}

	if population != "" {
		if err := a.checkColumns(a.PopulationColumn); err != nil {
			return "", err
		}
	}
	return filter.Where(where, filter.Population(a.PopulationColumn, population)), nil
}

// ToSelect will transform a rows request into a SELECT statement and the matching COUNT statement.
func (a APITranslator) ToSelect(request m.RowsRequest, where string, limit uint64) (string, []interface{}, error) {
	if err := inputValidator.Struct(a); err != nil {
		return "", nil, e.TranslateValidatorError(err, trans)
	}

	if err := a.checkColumns(request.Columns...); err != nil {
		return "", nil, err
	}

	orderBy := make([]query.Order, 0, len(request.OrderBy))
	for _, order := range request.OrderBy {
		if err := a.checkColumns(order.Column); err != nil {
			return "", nil, err
		}
		orderBy = append(orderBy, query.Order{
			Column:     order.Column,
			Descending: strings.ToLower(order.Order) == "desc",
		})
	}

	if request.PageSize > 0 && uint64(request.PageSize) < limit {
		limit = uint64(request.PageSize)
	}

	return query.Select(a.Path, request.Columns, where, orderBy, limit)
}

func (a APITranslator) ToCount(where string) (string, []interface{}, error) {
	return query.Count(a.Path, where)
}

// ToHistogram builds a categorical histogram, or a numeric one when bins are requested
func (a APITranslator) ToHistogram(request m.HistogramRequest, where string) (string, []interface{}, error) {
	if err := a.checkColumns(request.Column); err != nil {
		return "", nil, err
	}

	if request.Bins > 0 {
		if a.Columns.Lookup(request.Column).Type == schema.TypeString ||
			a.Columns.Lookup(request.Column).Type == schema.TypeBool {
			return "", nil, e.NewBadRequestError(fmt.Sprintf("column '%s' is not numeric", request.Column))
		}
		sql, values, err := query.NumericHistogram(a.Path, request.Column, where, *request.Min, *request.Max, request.Bins)
		if err != nil {
			return "", nil, e.NewBadRequestError(err.Error())
		}
		return sql, values, nil
	}

	return query.Histogram(a.Path, request.Column, where)
}

func (a APITranslator) ToFrames(request m.FramesRequest, where string, limit uint64) (string, []interface{}, error) {
	if err := a.checkColumns(append([]string{request.ClipColumn, request.FrameColumn}, request.Columns...)...); err != nil {
		return "", nil, err
	}

	clip, err := parameter(a.Columns.Lookup(request.ClipColumn), request.Clip)
	if err != nil {
		return "", nil, err
	}

	if request.Limit > 0 && uint64(request.Limit) < limit {
		limit = uint64(request.Limit)
	}
	return query.Frames(a.Path, request.ClipColumn, clip, request.FrameColumn, request.Columns, where, limit)
}

// parameter converts a string request value to the type of its column so it
// binds without a cast
func parameter(column schema.Column, value string) (interface{}, error) {
	switch column.Type {
	case schema.TypeNumber:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, e.NewBadRequestError(fmt.Sprintf("column %s expects a number, got %q", column.Name, value))
		}
		return f, nil
	case schema.TypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, e.NewBadRequestError(fmt.Sprintf("column %s expects a boolean, got %q", column.Name, value))
		}
		return b, nil
	default:
		return value, nil
	}
}

// ToConfusionMatrix joins the actual labels of a (the filtered side) with the predicted labels of other
func (a APITranslator) ToConfusionMatrix(other APITranslator, request m.ConfusionMatrixRequest, where string) (string, []interface{}, error) {
	if err := a.checkColumns(append([]string{request.Actual.Column}, request.JoinKeys...)...); err != nil {
		return "", nil, err
	}
	if err := other.checkColumns(append([]string{request.Predicted.Column}, request.JoinKeys...)...); err != nil {
		return "", nil, err
	}

	sql, values, err := query.ConfusionMatrix(a.Path, other.Path, request.JoinKeys, request.Actual.Column, request.Predicted.Column, where)
	if err != nil {
		return "", nil, e.NewBadRequestError(err.Error())
	}
	return sql, values, nil
}

// ToUnion selects the same columns from every dataset, each translator
// compiling the filter against its own columns. The fragments must agree.
func ToUnion(translators map[string]APITranslator, request m.UnionRowsRequest, limit uint64) (string, []interface{}, error) {
	var where string
	paths := make(map[string]string, len(translators))
	for _, dataset := range request.Datasets {
		a, ok := translators[dataset]
		if !ok {
			return "", nil, fmt.Errorf("no translator for dataset '%s'", dataset)
		}
		if err := a.checkColumns(request.Columns...); err != nil {
			return "", nil, err
		}

		datasetWhere, err := a.ToWhere(request.Filter, request.Population)
		if err != nil {
			return "", nil, err
		}
		if len(paths) > 0 && datasetWhere != where {
			return "", nil, e.NewBadRequestError(
				fmt.Sprintf("filter compiles differently on dataset '%s', column types differ", dataset))
		}
		where = datasetWhere
		paths[dataset] = a.Path
	}

	if request.PageSize > 0 && uint64(request.PageSize) < limit {
		limit = uint64(request.PageSize)
	}

	sql, values, err := query.Union(paths, request.Columns, where, limit)
	if err != nil {
		return "", nil, e.NewBadRequestError(err.Error())
	}
	return sql, values, nil
}

func (a APITranslator) checkNode(node *filter.Node) error {
	if node == nil || node.Removed {
		return nil
	}
	if node.IsGroup() {
		for _, child := range node.Children {
			if err := a.checkNode(child); err != nil {
				return err
			}
		}
		return nil
	}
	return a.checkColumns(node.Column)
}

// checkColumns rejects names that are not columns of the table. Column
// names are spliced into statements so only known ones are accepted.
func (a APITranslator) checkColumns(names ...string) error {
	for _, name := range names {
		if _, err := a.Columns.Get(name); err != nil {
			return e.NewBadRequestError(fmt.Sprintf("unknown column '%s'", name))
		}
	}
	return nil
}
