package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

type connectionsAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ConnectionStore is the registry of users with a linked Google Calendar.
type ConnectionStore interface {
	Put(ctx context.Context, conn *Connection) error
	Get(ctx context.Context, userID string) (*Connection, error)
	List(ctx context.Context) ([]*Connection, error)
	Delete(ctx context.Context, userID string) error
	TouchLastSync(ctx context.Context, userID string) error
}

// DynamoConnectionStore persists connections to DynamoDB, keyed by userId.
type DynamoConnectionStore struct {
	client    connectionsAPI
	tableName string
	logger    *logging.Logger
}

var _ ConnectionStore = (*DynamoConnectionStore)(nil)

// NewDynamoConnectionStore builds a store backed by the provided DynamoDB client.
func NewDynamoConnectionStore(client connectionsAPI, tableName string, logger *logging.Logger) *DynamoConnectionStore {
	if client == nil {
		panic("calendar: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("calendar: connections table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoConnectionStore{client: client, tableName: tableName, logger: logger}
}

// Put stores or replaces a user's connection.
func (s *DynamoConnectionStore) Put(ctx context.Context, conn *Connection) error {
	if conn == nil || conn.UserID == "" {
		return errors.New("calendar: connection with userID required")
	}
	if conn.ConnectedAt == "" {
		conn.ConnectedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	item, err := attributevalue.MarshalMap(conn)
	if err != nil {
		return fmt.Errorf("calendar: failed to marshal connection: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("calendar: failed to persist connection: %w", err)
	}
	return nil
}

// Get fetches a user's connection, ErrNotConnected when absent.
func (s *DynamoConnectionStore) Get(ctx context.Context, userID string) (*Connection, error) {
	if userID == "" {
		return nil, errors.New("calendar: userID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to fetch connection: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotConnected
	}

	var conn Connection
	if err := attributevalue.UnmarshalMap(out.Item, &conn); err != nil {
		return nil, fmt.Errorf("calendar: failed to decode connection: %w", err)
	}
	return &conn, nil
}

// List returns every connected user. Eventual consistency is acceptable here;
// a user connecting mid-request simply misses this fan-out and is caught up
// by their backfill job.
func (s *DynamoConnectionStore) List(ctx context.Context) ([]*Connection, error) {
	var conns []*Connection
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("calendar: failed to list connections: %w", err)
		}
		for _, item := range out.Items {
			var conn Connection
			if err := attributevalue.UnmarshalMap(item, &conn); err != nil {
				return nil, fmt.Errorf("calendar: failed to decode connection: %w", err)
			}
			conns = append(conns, &conn)
		}
		if out.LastEvaluatedKey == nil {
			return conns, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// Delete removes a user's connection.
func (s *DynamoConnectionStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("calendar: userID required")
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return fmt.Errorf("calendar: failed to delete connection: %w", err)
	}
	return nil
}

// TouchLastSync stamps the connection after a completed backfill.
func (s *DynamoConnectionStore) TouchLastSync(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("calendar: userID required")
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression: aws.String("SET lastSyncAt = :ts"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ts": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_exists(userId)"),
	})
	if err != nil {
		return fmt.Errorf("calendar: failed to touch lastSyncAt for %s: %w", userID, err)
	}
	return nil
}
