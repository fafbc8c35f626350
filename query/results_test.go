package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/inf.v0"
)

func TestNewMatrix(t *testing.T) {
	m, err := NewMatrix([]map[string]interface{}{
		{"actual": "car", "predicted": "car", "count": int64(1)},
		{"actual": "car", "predicted": "truck", "count": int64(1)},
		{"actual": "truck", "predicted": "truck", "count": "1"},
		{"actual": "pedestrian", "predicted": "pedestrian", "count": 1.0},
		{"actual": "car", "predicted": nil, "count": inf.NewDec(2, 0)},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"NULL", "car", "pedestrian", "truck"}, m.Labels)
	assert.Equal(t, [][]int64{
		{0, 0, 0, 0},
		{2, 1, 0, 1},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}, m.Counts)
	assert.Equal(t, int64(6), m.Total)
}

func TestNewMatrixEmpty(t *testing.T) {
	m, err := NewMatrix(nil)
	assert.NoError(t, err)
	assert.Empty(t, m.Labels)
	assert.Empty(t, m.Counts)
	assert.Equal(t, int64(0), m.Total)
}

func TestNewMatrixInvalidCount(t *testing.T) {
	_, err := NewMatrix([]map[string]interface{}{{"actual": "car", "predicted": "car", "count": true}})
	assert.EqualError(t, err, "unexpected count of type bool")
}

func TestNewBuckets(t *testing.T) {
	buckets, err := NewBuckets([]map[string]interface{}{
		{"bucket": int64(0), "count": int64(3)},
		{"bucket": int64(3), "count": int64(1)},
	}, 0, 40, 4)
	assert.NoError(t, err)
	assert.Equal(t, []Bucket{
		{Lo: 0, Hi: 10, Count: 3},
		{Lo: 10, Hi: 20, Count: 0},
		{Lo: 20, Hi: 30, Count: 0},
		{Lo: 30, Hi: 40, Count: 1},
	}, buckets)
}

func TestNewBucketsOutOfRange(t *testing.T) {
	_, err := NewBuckets([]map[string]interface{}{{"bucket": int64(4), "count": int64(1)}}, 0, 40, 4)
	assert.EqualError(t, err, "bucket 4 out of range [0, 4)")
}

func TestNewBucketsTooMany(t *testing.T) {
	_, err := NewBuckets(nil, 0, 1, 1<<45)
	assert.EqualError(t, err, "bins must be at most 1000")
}
