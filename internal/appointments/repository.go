package appointments

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Repository defines appointment persistence operations.
type Repository interface {
	Put(ctx context.Context, appt *Appointment) error
	Get(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context) ([]*Appointment, error)
	Delete(ctx context.Context, id string) error
}

// DynamoRepository persists appointments to DynamoDB, keyed by id.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("appointments: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("appointments: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{client: client, tableName: tableName, logger: logger}
}

// Put stores or replaces an appointment.
func (r *DynamoRepository) Put(ctx context.Context, appt *Appointment) error {
	item, err := attributevalue.MarshalMap(appt)
	if err != nil {
		return fmt.Errorf("appointments: failed to marshal appointment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("appointments: failed to persist appointment: %w", err)
	}
	return nil
}

// Get fetches one appointment, ErrNotFound when absent.
func (r *DynamoRepository) Get(ctx context.Context, id string) (*Appointment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       apptKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: failed to fetch appointment: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var appt Appointment
	if err := attributevalue.UnmarshalMap(out.Item, &appt); err != nil {
		return nil, fmt.Errorf("appointments: failed to decode appointment: %w", err)
	}
	return &appt, nil
}

// List returns every appointment ordered by session date.
func (r *DynamoRepository) List(ctx context.Context) ([]*Appointment, error) {
	var out []*Appointment
	var startKey map[string]types.AttributeValue
	for {
		page, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("appointments: failed to list appointments: %w", err)
		}
		for _, item := range page.Items {
			var appt Appointment
			if err := attributevalue.UnmarshalMap(item, &appt); err != nil {
				return nil, fmt.Errorf("appointments: failed to decode appointment: %w", err)
			}
			out = append(out, &appt)
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DateOfSession < out[j].DateOfSession })
	return out, nil
}

// Delete removes an appointment record.
func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       apptKey(id),
	})
	if err != nil {
		return fmt.Errorf("appointments: failed to delete appointment: %w", err)
	}
	return nil
}

func apptKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
