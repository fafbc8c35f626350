package query

import (
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/inf.v0"
)

// Matrix is a dense confusion matrix. Counts[i][j] is the number of rows
// whose actual label is Labels[i] and predicted label is Labels[j].
type Matrix struct {
	Labels []string  `json:"labels"`
	Counts [][]int64 `json:"counts"`
	Total  int64     `json:"total"`
}

// Bucket is the half-open range [Lo, Hi). The last bucket also holds Hi.
type Bucket struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int64   `json:"count"`
}

// NewMatrix assembles "actual", "predicted", "count" rows. The label axis
// is the sorted union of both label columns; a null label shows as "NULL".
func NewMatrix(rows []map[string]interface{}) (*Matrix, error) {
	type cell struct{ actual, predicted string }

	counts := make(map[cell]int64, len(rows))
	seen := make(map[string]bool)
	for _, row := range rows {
		count, err := toInt64(row["count"])
		if err != nil {
			return nil, err
		}
		c := cell{actual: label(row["actual"]), predicted: label(row["predicted"])}
		counts[c] += count
		seen[c.actual] = true
		seen[c.predicted] = true
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	m := &Matrix{Labels: labels, Counts: make([][]int64, len(labels))}
	for i := range m.Counts {
		m.Counts[i] = make([]int64, len(labels))
	}
	for c, count := range counts {
		m.Counts[index[c.actual]][index[c.predicted]] += count
		m.Total += count
	}
	return m, nil
}

// NewBuckets assembles "bucket", "count" rows of a numeric histogram into
// bins ordered by range, zero filling the bins with no rows.
func NewBuckets(rows []map[string]interface{}, min float64, max float64, bins int) ([]Bucket, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bins must be positive")
	}
	if bins > MaxBins {
		return nil, fmt.Errorf("bins must be at most %d", MaxBins)
	}

	width := (max - min) / float64(bins)
	buckets := make([]Bucket, bins)
	for i := range buckets {
		buckets[i].Lo = min + float64(i)*width
		buckets[i].Hi = min + float64(i+1)*width
	}
	buckets[bins-1].Hi = max

	for _, row := range rows {
		index, err := toInt64(row["bucket"])
		if err != nil {
			return nil, err
		}
		if index < 0 || index >= int64(bins) {
			return nil, fmt.Errorf("bucket %d out of range [0, %d)", index, bins)
		}
		count, err := toInt64(row["count"])
		if err != nil {
			return nil, err
		}
		buckets[index].Count += count
	}
	return buckets, nil
}

// RowCount reads the "count" column of an aggregate row
func RowCount(row map[string]interface{}) (int64, error) {
	return toInt64(row["count"])
}

func label(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case *inf.Dec:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case *inf.Dec:
		if i, ok := v.Unscaled(); ok && v.Scale() == 0 {
			return i, nil
		}
		return 0, fmt.Errorf("count %s is not an integer", v)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count of type %T", value)
	}
}
