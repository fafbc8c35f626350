package catalog

import (
	"context"
	"reflect"

	"github.com/stretchr/testify/mock"
)

type ItemStoreMock struct {
	mock.Mock
}

// Scan copies the first returned argument into out
func (o *ItemStoreMock) Scan(ctx context.Context, table string, filter map[string]string, out interface{}) error {
	args := o.Called(table, filter)
	if items := args.Get(0); items != nil {
		reflect.ValueOf(out).Elem().Set(reflect.ValueOf(items))
	}
	return args.Error(1)
}

// Get copies the first returned argument into out when found
func (o *ItemStoreMock) Get(ctx context.Context, table string, key map[string]string, out interface{}) (bool, error) {
	args := o.Called(table, key)
	if item := args.Get(0); item != nil {
		reflect.ValueOf(out).Elem().Set(reflect.ValueOf(item))
		return true, args.Error(1)
	}
	return false, args.Error(1)
}

type SourceMock struct {
	mock.Mock
}

func (o *SourceMock) Datasets(ctx context.Context) ([]Dataset, error) {
	args := o.Called()
	datasets, _ := args.Get(0).([]Dataset)
	return datasets, args.Error(1)
}

func (o *SourceMock) Dataset(ctx context.Context, name string) (Dataset, error) {
	args := o.Called(name)
	dataset, _ := args.Get(0).(Dataset)
	return dataset, args.Error(1)
}

func (o *SourceMock) Workflows(ctx context.Context, dataset string) ([]Workflow, error) {
	args := o.Called(dataset)
	workflows, _ := args.Get(0).([]Workflow)
	return workflows, args.Error(1)
}
