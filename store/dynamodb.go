package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/sicko7947/wldstore"
)

// DynamoDBClient is the subset of *dynamodb.Client used by DynamoDBBackend
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DynamoDBClient = (*dynamodb.Client)(nil)

// itemOverhead approximates the attribute names and fixed attributes of an entry
const itemOverhead = 128

// entryItem is the DynamoDB representation of one key
type entryItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"entity_type"`
	Key        string `dynamodbav:"key"`
	Value      string `dynamodbav:"value"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

// DynamoDBBackend implements wldstore.Backend on a DynamoDB table with a
// PK/SK string key schema
type DynamoDBBackend struct {
	client    DynamoDBClient
	tableName string
	partition string
}

var _ wldstore.Backend = (*DynamoDBBackend)(nil)

// NewDynamoDBBackend creates a DynamoDB-backed key/value backend
func NewDynamoDBBackend(client DynamoDBClient, tableName, partition string) *DynamoDBBackend {
	if partition == "" {
		partition = DefaultPartition
	}
	return &DynamoDBBackend{
		client:    client,
		tableName: tableName,
		partition: partition,
	}
}

func (s *DynamoDBBackend) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: entryPK(s.partition)},
		AttrSK: &types.AttributeValueMemberS{Value: entrySK(key)},
	}
}

func (s *DynamoDBBackend) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if result.Item == nil {
		return "", false, nil
	}

	var item entryItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return item.Value, true, nil
}

func (s *DynamoDBBackend) Set(ctx context.Context, key, value string) error {
	if size := len(key) + len(value) + itemOverhead; size > MaxDynamoDBItemSize {
		return fmt.Errorf("item %s is %d bytes, limit is %d: %w", key, size, MaxDynamoDBItemSize, wldstore.ErrQuotaExceeded)
	}

	item, err := attributevalue.MarshalMap(entryItem{
		PK:         entryPK(s.partition),
		SK:         entrySK(key),
		EntityType: EntityTypeEntry,
		Key:        key,
		Value:      value,
		UpdatedAt:  time.Now().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		if isItemTooLarge(err) {
			return fmt.Errorf("failed to put %s: %v: %w", key, err, wldstore.ErrQuotaExceeded)
		}
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *DynamoDBBackend) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.itemKey(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *DynamoDBBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	var lastEvaluatedKey map[string]types.AttributeValue

	// Paginate through all results
	for {
		queryInput := &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: entryPK(s.partition)},
				":sk": &types.AttributeValueMemberS{Value: entrySKPrefix(prefix)},
			},
			ProjectionExpression: aws.String("SK"),
		}
		if lastEvaluatedKey != nil {
			queryInput.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := s.client.Query(ctx, queryInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys with prefix %q: %w", prefix, err)
		}

		for _, item := range result.Items {
			skAttr, ok := item[AttrSK].(*types.AttributeValueMemberS)
			if !ok || !strings.HasPrefix(skAttr.Value, entrySK("")) {
				continue
			}
			keys = append(keys, entryKey(skAttr.Value))
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	sort.Strings(keys)
	return keys, nil
}

// isItemTooLarge detects the ValidationException DynamoDB returns for items
// over the size limit
func isItemTooLarge(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationException" &&
		strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "size")
}
