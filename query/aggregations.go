package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Histogram counts rows per distinct value of a column
func Histogram(path string, column string, where string) (string, []interface{}, error) {
	if column == "" {
		return "", nil, errors.New("histogram column is required")
	}
	b := sq.Select(column+" AS bucket", "COUNT(*) AS count").From(path)
	return filtered(b, where).GroupBy(column).OrderBy(column).ToSql()
}

// MaxBins bounds the number of bins of a numeric histogram
const MaxBins = 1000

// NumericHistogram counts rows in equal width bins over [min, max]. Values
// outside of the range land in the first or last bin.
func NumericHistogram(path string, column string, where string, min float64, max float64, bins int) (string, []interface{}, error) {
	if column == "" {
		return "", nil, errors.New("histogram column is required")
	}
	if bins <= 0 {
		return "", nil, errors.New("bins must be positive")
	}
	if bins > MaxBins {
		return "", nil, fmt.Errorf("bins must be at most %d", MaxBins)
	}
	if max <= min {
		return "", nil, fmt.Errorf("invalid histogram range [%v, %v]", min, max)
	}

	width := (max - min) / float64(bins)
	// clamped as a double, far outliers overflow INTEGER
	bucket := fmt.Sprintf("CAST(LEAST(GREATEST(FLOOR((%s - %s) / %s), 0), %d) AS INTEGER)",
		column, formatFloat(min), formatFloat(width), bins-1)

	b := sq.Select(bucket+" AS bucket", "COUNT(*) AS count").
		From(path).
		Where(column + " IS NOT NULL")
	return filtered(b, where).GroupBy("1").OrderBy("1").ToSql()
}

// ConfusionMatrix cross-tabulates a label column of two dumps joined on the
// key columns. The filter applies to the left dump.
func ConfusionMatrix(leftPath string, rightPath string, joinKeys []string, leftColumn string, rightColumn string, where string) (string, []interface{}, error) {
	if len(joinKeys) == 0 {
		return "", nil, errors.New("at least one join key is required")
	}
	if leftColumn == "" || rightColumn == "" {
		return "", nil, errors.New("both label columns are required")
	}

	conditions := make([]string, len(joinKeys))
	for i, key := range joinKeys {
		conditions[i] = fmt.Sprintf("l.%s = r.%s", key, key)
	}

	left := filtered(sq.Select("*").From(leftPath), where)
	return sq.Select("l."+leftColumn+" AS actual", "r."+rightColumn+" AS predicted", "COUNT(*) AS count").
		FromSelect(left, "l").
		Join(rightPath + " r ON " + strings.Join(conditions, " AND ")).
		GroupBy("1", "2").
		OrderBy("1", "2").
		ToSql()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
