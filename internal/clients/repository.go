package clients

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/google/uuid"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Repository defines client persistence operations.
type Repository interface {
	Create(ctx context.Context, req *CreateClientRequest) (*Client, error)
	Get(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context) ([]*Client, error)
	Update(ctx context.Context, id string, req *UpdateClientRequest) (*Client, error)
	Delete(ctx context.Context, id string) error
}

// DynamoRepository persists clients to DynamoDB, keyed by id.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("clients: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("clients: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{client: client, tableName: tableName, logger: logger}
}

// Create validates and stores a new client.
func (r *DynamoRepository) Create(ctx context.Context, req *CreateClientRequest) (*Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	c := &Client{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("clients: failed to marshal client: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("clients: failed to persist client: %w", err)
	}
	return c, nil
}

// Get fetches one client, ErrNotFound when absent.
func (r *DynamoRepository) Get(ctx context.Context, id string) (*Client, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       clientKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("clients: failed to fetch client: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var c Client
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("clients: failed to decode client: %w", err)
	}
	return &c, nil
}

// List returns every client, newest first.
func (r *DynamoRepository) List(ctx context.Context) ([]*Client, error) {
	var out []*Client
	var startKey map[string]types.AttributeValue
	for {
		page, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("clients: failed to list clients: %w", err)
		}
		for _, item := range page.Items {
			var c Client
			if err := attributevalue.UnmarshalMap(item, &c); err != nil {
				return nil, fmt.Errorf("clients: failed to decode client: %w", err)
			}
			out = append(out, &c)
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// Update applies a partial update and returns the stored client.
func (r *DynamoRepository) Update(ctx context.Context, id string, req *UpdateClientRequest) (*Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("clients: failed to marshal client: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("clients: failed to update client: %w", err)
	}
	return c, nil
}

// Delete removes a client record.
func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       clientKey(id),
	})
	if err != nil {
		return fmt.Errorf("clients: failed to delete client: %w", err)
	}
	return nil
}

func clientKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
