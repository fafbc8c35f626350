package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/inf.v0"
)

type ColumnType string

const (
	TypeUnknown ColumnType = ""
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeBool    ColumnType = "bool"
)

type Operator string

const (
	OpEq        Operator = "="
	OpNotEq     Operator = "!="
	OpLt        Operator = "<"
	OpLte       Operator = "<="
	OpGt        Operator = ">"
	OpGte       Operator = ">="
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpLike      Operator = "LIKE"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

var operatorAliases = map[string]Operator{
	"=":           OpEq,
	"==":          OpEq,
	"eq":          OpEq,
	"!=":          OpNotEq,
	"<>":          OpNotEq,
	"ne":          OpNotEq,
	"noteq":       OpNotEq,
	"<":           OpLt,
	"lt":          OpLt,
	"<=":          OpLte,
	"lte":         OpLte,
	">":           OpGt,
	"gt":          OpGt,
	">=":          OpGte,
	"gte":         OpGte,
	"in":          OpIn,
	"not in":      OpNotIn,
	"notin":       OpNotIn,
	"like":        OpLike,
	"is null":     OpIsNull,
	"isnull":      OpIsNull,
	"is not null": OpIsNotNull,
	"isnotnull":   OpIsNotNull,
}

// ParseOperator accepts the symbols and the word forms used by the
// dashboards ("eq", "notEq", "in", ...).
func ParseOperator(op string) (Operator, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(op), " "))
	if operator, ok := operatorAliases[normalized]; ok {
		return operator, nil
	}
	return "", fmt.Errorf("unknown operator %q", op)
}

// TakesList reports whether the operator compares against a list of values
func (o Operator) TakesList() bool {
	return o == OpIn || o == OpNotIn
}

// TakesValue reports whether the operator needs a right operand at all
func (o Operator) TakesValue() bool {
	return o != OpIsNull && o != OpIsNotNull
}

var defaultOperators = map[ColumnType][]Operator{
	TypeString: {OpEq, OpNotEq, OpIn, OpNotIn, OpLike, OpIsNull, OpIsNotNull},
	TypeNumber: {OpEq, OpNotEq, OpLt, OpLte, OpGt, OpGte, OpIn, OpNotIn, OpIsNull, OpIsNotNull},
	TypeBool:   {OpEq, OpNotEq, OpIsNull, OpIsNotNull},
}

// TypeFromEngine classifies a query engine type name
func TypeFromEngine(engineType string) ColumnType {
	t := strings.ToLower(engineType)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}

	switch t {
	case "boolean", "bool":
		return TypeBool
	case "tinyint", "smallint", "integer", "int", "bigint", "hugeint", "ubigint", "uinteger",
		"usmallint", "utinyint", "double", "float", "real", "decimal":
		return TypeNumber
	default:
		return TypeString
	}
}

type Column struct {
	Name      string     `json:"name"`
	Type      ColumnType `json:"type"`
	Operators []Operator `json:"operators"`
}

func NewColumn(name string, columnType ColumnType) Column {
	return Column{
		Name:      name,
		Type:      columnType,
		Operators: defaultOperators[columnType],
	}
}

// Allows reports whether the operator can be applied to the column. Columns
// without a declared type accept every operator.
func (c Column) Allows(op Operator) bool {
	if c.Type == TypeUnknown {
		return true
	}
	for _, allowed := range c.Operators {
		if allowed == op {
			return true
		}
	}
	return false
}

// Literal renders a value as a SQL literal for this column: strings are
// quoted, numbers bare, booleans TRUE/FALSE.
func (c Column) Literal(value interface{}) (string, error) {
	if value == nil {
		return "NULL", nil
	}

	switch c.Type {
	case TypeString:
		return Quote(stringValue(value)), nil
	case TypeNumber:
		return numberLiteral(c.Name, value)
	case TypeBool:
		return boolLiteral(c.Name, value)
	default:
		return untypedLiteral(value), nil
	}
}

// Quote single quotes a string literal, doubling embedded quotes
func Quote(value string) string {
	return "'" + strings.Replace(value, "'", "''", -1) + "'"
}

func stringValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func numberLiteral(column string, value interface{}) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return numericString(column, v.String())
	case string:
		return numericString(column, v)
	case *inf.Dec:
		return v.String(), nil
	default:
		return "", fmt.Errorf("column %s expects a number, got %v", column, value)
	}
}

func numericString(column string, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if _, ok := new(inf.Dec).SetString(trimmed); !ok || trimmed == "" {
		return "", fmt.Errorf("column %s expects a number, got %q", column, value)
	}
	return trimmed, nil
}

func boolLiteral(column string, value interface{}) (string, error) {
	var b bool
	switch v := value.(type) {
	case bool:
		b = v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return "", fmt.Errorf("column %s expects a boolean, got %q", column, v)
		}
		b = parsed
	default:
		return "", fmt.Errorf("column %s expects a boolean, got %v", column, value)
	}

	if b {
		return "TRUE", nil
	}
	return "FALSE", nil
}

func untypedLiteral(value interface{}) string {
	switch v := value.(type) {
	case string:
		return Quote(v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int, int32, int64, uint, uint32, uint64, float32:
		return fmt.Sprint(v)
	default:
		return Quote(fmt.Sprint(v))
	}
}

// Option is a dropdown entry
type Option struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

func (c Column) OperatorOptions() []Option {
	options := make([]Option, len(c.Operators))
	for i, op := range c.Operators {
		options[i] = Option{Label: string(op), Value: string(op)}
	}
	return options
}
