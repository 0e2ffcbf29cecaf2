// Package messaging provides per-thread practice messages with a live
// websocket feed for connected staff.
package messaging

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
	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/google/uuid"
)

var (
	// ErrMissingThread indicates no thread was referenced.
	ErrMissingThread = errors.New("messaging: thread_id is required")

	// ErrEmptyBody indicates a blank message body.
	ErrEmptyBody = errors.New("messaging: body is required")
)

// Message is one message in a thread. Threads are identified by the client
// they concern.
type Message struct {
	ID       string `dynamodbav:"id" json:"id"`
	ThreadID string `dynamodbav:"threadId" json:"thread_id"`
	AuthorID string `dynamodbav:"authorId" json:"author_id"`
	Body     string `dynamodbav:"body" json:"body"`
	SentAt   string `dynamodbav:"sentAt" json:"sent_at"`
}

// PostMessageRequest is the request body for posting a message.
type PostMessageRequest struct {
	ThreadID string `json:"thread_id"`
	AuthorID string `json:"author_id"`
	Body     string `json:"body"`
}

// Validate validates the post message request.
func (r *PostMessageRequest) Validate() error {
	if r.ThreadID == "" {
		return ErrMissingThread
	}
	if strings.TrimSpace(r.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store defines message persistence operations.
type Store interface {
	Post(ctx context.Context, req *PostMessageRequest) (*Message, error)
	ListThread(ctx context.Context, threadID string) ([]*Message, error)
}

// DynamoStore persists messages to DynamoDB.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("messaging: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("messaging: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, tableName: tableName, logger: logger}
}

// Post validates and stores a new message.
func (s *DynamoStore) Post(ctx context.Context, req *PostMessageRequest) (*Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg := &Message{
		ID:       uuid.NewString(),
		ThreadID: req.ThreadID,
		AuthorID: req.AuthorID,
		Body:     req.Body,
		SentAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}

	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to marshal message: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to persist message: %w", err)
	}
	return msg, nil
}

// ListThread returns a thread's messages in send order.
func (s *DynamoStore) ListThread(ctx context.Context, threadID string) ([]*Message, error) {
	if threadID == "" {
		return nil, ErrMissingThread
	}

	var out []*Message
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.tableName),
			FilterExpression: aws.String("threadId = :t"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberS{Value: threadID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to list thread: %w", err)
		}
		for _, item := range page.Items {
			var msg Message
			if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
				return nil, fmt.Errorf("messaging: failed to decode message: %w", err)
			}
			out = append(out, &msg)
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SentAt < out[j].SentAt })
	return out, nil
}
