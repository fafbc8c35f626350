package schema

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/autoperception/dataset-explorer/db"
)

type ProberMock struct {
	mock.Mock
}

func (o *ProberMock) Probe(ctx context.Context, path string) ([]db.ColumnInfo, error) {
	args := o.Called(path)
	columns, _ := args.Get(0).([]db.ColumnInfo)
	return columns, args.Error(1)
}

func (o *ProberMock) Distinct(ctx context.Context, path string, column string, limit int) ([]interface{}, error) {
	args := o.Called(path, column, limit)
	values, _ := args.Get(0).([]interface{})
	return values, args.Error(1)
}

type RefresherMock struct {
	mock.Mock
}

func (o *RefresherMock) Refresh(ctx context.Context) error {
	return o.Called().Error(0)
}
