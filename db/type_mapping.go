package db

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"gopkg.in/inf.v0"
)

// baseType strips parameters and lower cases an engine type name,
// "DECIMAL(10,2)" becomes "decimal".
func baseType(engineType string) string {
	t := strings.ToLower(strings.TrimSpace(engineType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	return t
}

// convertValue maps the textual cell value returned by Athena to a Go value
// with a json representation matching the column type.
func convertValue(engineType string, raw *string) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	value := *raw

	switch baseType(engineType) {
	case "boolean":
		return strconv.ParseBool(value)
	case "tinyint", "smallint", "integer", "int", "bigint":
		return strconv.ParseInt(value, 10, 64)
	case "double", "float", "real":
		return strconv.ParseFloat(value, 64)
	case "decimal":
		dec, ok := new(inf.Dec).SetString(value)
		if !ok {
			return nil, fmt.Errorf("invalid decimal value %q", value)
		}
		return dec, nil
	default:
		// varchar, char, date, timestamp and nested types are kept as text
		return value, nil
	}
}

// normalizeValue maps values scanned by database/sql drivers to the same
// representation convertValue produces.
func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case float32:
		return float64(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case *big.Int:
		return new(inf.Dec).SetUnscaledBig(v).SetScale(0)
	case fmt.Stringer:
		if dec, ok := new(inf.Dec).SetString(v.String()); ok {
			return dec
		}
		return v.String()
	default:
		return v
	}
}

// executionParameters renders the positional values of a query as SQL
// literals, the form Athena expects for execution parameters.
func executionParameters(values []interface{}) ([]string, error) {
	params := make([]string, 0, len(values))
	for _, value := range values {
		param, err := sqlLiteral(value)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func sqlLiteral(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.Replace(v, "'", "''", -1) + "'", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case *inf.Dec:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported query parameter type %T", value)
	}
}
