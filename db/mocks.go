package db

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/mock"
)

type SessionMock struct {
	mock.Mock
}

func NewSessionMock() *SessionMock {
	return &SessionMock{}
}

func (o *SessionMock) ExecuteIter(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (ResultSet, error) {
	args := o.Called(query, options, values)
	rs, _ := args.Get(0).(ResultSet)
	return rs, args.Error(1)
}

// WithRows makes the given query return the provided columns and rows
func (o *SessionMock) WithRows(query string, columns []ColumnInfo, rows ...map[string]interface{}) *SessionMock {
	o.On("ExecuteIter", query, mock.Anything, mock.Anything).
		Return(NewResultSet("mock-query", columns, rows), nil)
	return o
}

type ResultMock struct {
	mock.Mock
}

func (o *ResultMock) QueryID() string {
	return o.Called().String(0)
}

func (o *ResultMock) Columns() []ColumnInfo {
	return o.Called().Get(0).([]ColumnInfo)
}

func (o *ResultMock) Values() []map[string]interface{} {
	args := o.Called()
	return args.Get(0).([]map[string]interface{})
}

type AthenaMock struct {
	mock.Mock
}

func (o *AthenaMock) StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	args := o.Called(params)
	out, _ := args.Get(0).(*athena.StartQueryExecutionOutput)
	return out, args.Error(1)
}

func (o *AthenaMock) GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	args := o.Called(params)
	out, _ := args.Get(0).(*athena.GetQueryExecutionOutput)
	return out, args.Error(1)
}

func (o *AthenaMock) GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error) {
	args := o.Called(params)
	out, _ := args.Get(0).(*athena.GetQueryResultsOutput)
	return out, args.Error(1)
}

func (o *AthenaMock) StopQueryExecution(ctx context.Context, params *athena.StopQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StopQueryExecutionOutput, error) {
	args := o.Called(params)
	out, _ := args.Get(0).(*athena.StopQueryExecutionOutput)
	return out, args.Error(1)
}

type DynamoDbMock struct {
	mock.Mock
}

func (o *DynamoDbMock) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := o.Called(params)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func (o *DynamoDbMock) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := o.Called(params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

type S3PresignMock struct {
	mock.Mock
}

func (o *S3PresignMock) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	args := o.Called(params)
	out, _ := args.Get(0).(*v4.PresignedHTTPRequest)
	return out, args.Error(1)
}

type PresignerMock struct {
	mock.Mock
}

func (o *PresignerMock) PresignGetObject(ctx context.Context, s3Path string, expiry time.Duration) (string, error) {
	args := o.Called(s3Path, expiry)
	return args.String(0), args.Error(1)
}
