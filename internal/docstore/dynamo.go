package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// dynamoItem is the table layout: partition key "collection", sort key "id".
type dynamoItem struct {
	Collection string `dynamodbav:"collection"`
	ID         string `dynamodbav:"id"`
	Data       string `dynamodbav:"data"`
}

// DynamoStore persists documents in a single DynamoDB table.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string) *DynamoStore {
	if client == nil {
		panic("docstore: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("docstore: table name cannot be empty")
	}
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return Document{}, err
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            dynamoKey(collection, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Document{}, fmt.Errorf("docstore: dynamodb get %s/%s: %w", collection, id, err)
	}
	if len(out.Item) == 0 {
		return Document{}, ErrNotFound
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Document{}, fmt.Errorf("docstore: dynamodb unmarshal %s/%s: %w", collection, id, err)
	}
	return Document{ID: item.ID, Data: []byte(item.Data)}, nil
}

func (s *DynamoStore) List(ctx context.Context, collection string) ([]Document, error) {
	var (
		docs  []Document
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("#c = :c"),
			ExpressionAttributeNames: map[string]string{
				"#c": "collection",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":c": &types.AttributeValueMemberS{Value: collection},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("docstore: dynamodb list %s: %w", collection, err)
		}
		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("docstore: dynamodb unmarshal %s: %w", collection, err)
		}
		for _, item := range items {
			docs = append(docs, Document{ID: item.ID, Data: []byte(item.Data)})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	// Sort keys come back ordered already; sorting keeps the contract explicit for fakes.
	sortByID(docs)
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

func (s *DynamoStore) Create(ctx context.Context, collection, id string, value any) error {
	err := s.put(ctx, collection, id, value, "attribute_not_exists(id)")
	if isConditionFailed(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *DynamoStore) Put(ctx context.Context, collection, id string, value any) error {
	return s.put(ctx, collection, id, value, "")
}

func (s *DynamoStore) Update(ctx context.Context, collection, id string, value any) error {
	err := s.put(ctx, collection, id, value, "attribute_exists(id)")
	if isConditionFailed(err) {
		return ErrNotFound
	}
	return err
}

func (s *DynamoStore) Delete(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       dynamoKey(collection, id),
	})
	if err != nil {
		return fmt.Errorf("docstore: dynamodb delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DynamoStore) put(ctx context.Context, collection, id string, value any, condition string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(dynamoItem{Collection: collection, ID: id, Data: string(data)})
	if err != nil {
		return fmt.Errorf("docstore: dynamodb marshal %s/%s: %w", collection, id, err)
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}
	if condition != "" {
		input.ConditionExpression = aws.String(condition)
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("docstore: dynamodb put %s/%s: %w", collection, id, err)
	}
	return nil
}

func dynamoKey(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"collection": &types.AttributeValueMemberS{Value: collection},
		"id":         &types.AttributeValueMemberS{Value: id},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
