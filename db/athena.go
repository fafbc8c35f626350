package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/google/uuid"
)

// DefaultPollInterval is the delay between two query status checks
const DefaultPollInterval = 500 * time.Millisecond

// AthenaAPI is the subset of the Athena client used to run queries.
type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
	StopQueryExecution(ctx context.Context, params *athena.StopQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StopQueryExecutionOutput, error)
}

// Compile-time check
var _ Session = (*AthenaSession)(nil)

// QueryFailedError is returned when Athena reports a terminal state other
// than SUCCEEDED.
type QueryFailedError struct {
	QueryID string
	State   string
	Reason  string
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query %s %s: %s", e.QueryID, strings.ToLower(e.State), e.Reason)
}

type AthenaSession struct {
	client       AthenaAPI
	pollInterval time.Duration
}

func NewAthenaSession(client AthenaAPI, pollInterval time.Duration) *AthenaSession {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &AthenaSession{client: client, pollInterval: pollInterval}
}

func (s *AthenaSession) ExecuteIter(ctx context.Context, query string, options *QueryOptions, values ...interface{}) (ResultSet, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString:        aws.String(query),
		ClientRequestToken: aws.String(uuid.New().String()),
	}

	if len(values) > 0 {
		params, err := executionParameters(values)
		if err != nil {
			return nil, err
		}
		input.ExecutionParameters = params
	}

	if options != nil {
		if options.Database != "" {
			input.QueryExecutionContext = &athenatypes.QueryExecutionContext{Database: aws.String(options.Database)}
		}
		if options.Workgroup != "" {
			input.WorkGroup = aws.String(options.Workgroup)
		}
		if options.OutputLocation != "" {
			input.ResultConfiguration = &athenatypes.ResultConfiguration{OutputLocation: aws.String(options.OutputLocation)}
		}
	}

	started, err := s.client.StartQueryExecution(ctx, input)
	if err != nil {
		return nil, err
	}
	queryID := aws.ToString(started.QueryExecutionId)

	if err := s.wait(ctx, queryID); err != nil {
		return nil, err
	}

	return s.results(ctx, queryID)
}

func (s *AthenaSession) wait(ctx context.Context, queryID string) error {
	for {
		out, err := s.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(queryID),
		})
		if err != nil {
			return err
		}

		if out.QueryExecution == nil || out.QueryExecution.Status == nil {
			return errors.New("query execution status missing for " + queryID)
		}

		status := out.QueryExecution.Status
		switch status.State {
		case athenatypes.QueryExecutionStateSucceeded:
			return nil
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			return &QueryFailedError{
				QueryID: queryID,
				State:   string(status.State),
				Reason:  aws.ToString(status.StateChangeReason),
			}
		}

		select {
		case <-time.After(s.pollInterval):
		case <-ctx.Done():
			// The caller is gone, the context can't be used anymore
			_, _ = s.client.StopQueryExecution(context.Background(), &athena.StopQueryExecutionInput{
				QueryExecutionId: aws.String(queryID),
			})
			return ctx.Err()
		}
	}
}

func (s *AthenaSession) results(ctx context.Context, queryID string) (ResultSet, error) {
	var (
		columns   []ColumnInfo
		values    = make([]map[string]interface{}, 0)
		nextToken *string
		first     = true
	)

	for {
		out, err := s.client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: aws.String(queryID),
			NextToken:        nextToken,
		})
		if err != nil {
			return nil, err
		}

		if out.ResultSet == nil {
			break
		}

		if columns == nil && out.ResultSet.ResultSetMetadata != nil {
			for _, info := range out.ResultSet.ResultSetMetadata.ColumnInfo {
				columns = append(columns, ColumnInfo{
					Name: aws.ToString(info.Name),
					Type: strings.ToLower(aws.ToString(info.Type)),
				})
			}
		}

		rows := out.ResultSet.Rows
		if first && len(rows) > 0 {
			// The first row of the first page holds the column names
			rows = rows[1:]
		}
		first = false

		for _, row := range rows {
			mapped, err := mapRow(columns, row)
			if err != nil {
				return nil, err
			}
			values = append(values, mapped)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return NewResultSet(queryID, columns, values), nil
}

func mapRow(columns []ColumnInfo, row athenatypes.Row) (map[string]interface{}, error) {
	if len(row.Data) != len(columns) {
		return nil, fmt.Errorf("row has %d values, expected %d", len(row.Data), len(columns))
	}

	mapped := make(map[string]interface{}, len(columns))
	for i, column := range columns {
		value, err := convertValue(column.Type, row.Data[i].VarCharValue)
		if err != nil {
			return nil, fmt.Errorf("column %s: %v", column.Name, err)
		}
		mapped[column.Name] = value
	}
	return mapped, nil
}
