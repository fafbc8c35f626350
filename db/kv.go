package db

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDbAPI is the subset of the DynamoDB client used for catalog reads.
type DynamoDbAPI interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// KeyValueStore reads items from DynamoDB tables. Items are decoded with the
// `dynamodbav` struct tags of the destination.
type KeyValueStore struct {
	client DynamoDbAPI
}

func NewKeyValueStore(client DynamoDbAPI) *KeyValueStore {
	return &KeyValueStore{client: client}
}

// Scan reads every item of the table matching the equality filter (no
// filter when empty) into out, a pointer to a slice.
func (s *KeyValueStore) Scan(ctx context.Context, table string, filter map[string]string, out interface{}) error {
	input := &dynamodb.ScanInput{
		TableName: aws.String(table),
	}

	if len(filter) > 0 {
		expr, err := filterExpression(filter)
		if err != nil {
			return err
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	items := make([]map[string]dynamotypes.AttributeValue, 0)
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		items = append(items, page.Items...)
	}

	return attributevalue.UnmarshalListOfMaps(items, out)
}

// Get reads a single item by key into out. It reports false when the item
// does not exist.
func (s *KeyValueStore) Get(ctx context.Context, table string, key map[string]string, out interface{}) (bool, error) {
	itemKey, err := attributevalue.MarshalMap(key)
	if err != nil {
		return false, err
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       itemKey,
	})
	if err != nil {
		return false, err
	}

	if len(result.Item) == 0 {
		return false, nil
	}

	return true, attributevalue.UnmarshalMap(result.Item, out)
}

func filterExpression(filter map[string]string) (expression.Expression, error) {
	names := make([]string, 0, len(filter))
	for name := range filter {
		names = append(names, name)
	}
	sort.Strings(names)

	condition := expression.Name(names[0]).Equal(expression.Value(filter[names[0]]))
	for _, name := range names[1:] {
		condition = condition.And(expression.Name(name).Equal(expression.Value(filter[name])))
	}

	return expression.NewBuilder().WithFilter(condition).Build()
}
