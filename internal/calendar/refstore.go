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

// userIndexName is the GSI projecting references by userId, used when a
// disconnect prunes everything a user owns.
const userIndexName = "userId-index"

type referencesAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ReferenceStore persists the appointment-to-remote-event mapping. Writes are
// scoped to a single (appointmentId, userId) key, so concurrent per-user sync
// operations never contend on the same item.
type ReferenceStore interface {
	Get(ctx context.Context, appointmentID, userID string) (*EventReference, error)
	Put(ctx context.Context, ref *EventReference) error
	Delete(ctx context.Context, appointmentID, userID string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
	DeleteByAppointment(ctx context.Context, appointmentID string) (int, error)
}

// DynamoReferenceStore stores references with appointmentId as the partition
// key and userId as the sort key.
type DynamoReferenceStore struct {
	client    referencesAPI
	tableName string
	logger    *logging.Logger
}

var _ ReferenceStore = (*DynamoReferenceStore)(nil)

// NewDynamoReferenceStore builds a store backed by the provided DynamoDB client.
func NewDynamoReferenceStore(client referencesAPI, tableName string, logger *logging.Logger) *DynamoReferenceStore {
	if client == nil {
		panic("calendar: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("calendar: references table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoReferenceStore{client: client, tableName: tableName, logger: logger}
}

// Get fetches the reference for one (appointment, user) pair,
// ErrReferenceNotFound when absent.
func (s *DynamoReferenceStore) Get(ctx context.Context, appointmentID, userID string) (*EventReference, error) {
	if appointmentID == "" || userID == "" {
		return nil, errors.New("calendar: appointmentID and userID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       refKey(appointmentID, userID),
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to fetch reference: %w", err)
	}
	if out.Item == nil {
		return nil, ErrReferenceNotFound
	}

	var ref EventReference
	if err := attributevalue.UnmarshalMap(out.Item, &ref); err != nil {
		return nil, fmt.Errorf("calendar: failed to decode reference: %w", err)
	}
	return &ref, nil
}

// Put stores or replaces a reference.
func (s *DynamoReferenceStore) Put(ctx context.Context, ref *EventReference) error {
	if ref == nil || ref.AppointmentID == "" || ref.UserID == "" || ref.EventID == "" {
		return errors.New("calendar: reference requires appointmentID, userID and eventID")
	}
	ref.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	item, err := attributevalue.MarshalMap(ref)
	if err != nil {
		return fmt.Errorf("calendar: failed to marshal reference: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("calendar: failed to persist reference: %w", err)
	}
	return nil
}

// Delete removes the reference for one (appointment, user) pair.
func (s *DynamoReferenceStore) Delete(ctx context.Context, appointmentID, userID string) error {
	if appointmentID == "" || userID == "" {
		return errors.New("calendar: appointmentID and userID required")
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       refKey(appointmentID, userID),
	})
	if err != nil {
		return fmt.Errorf("calendar: failed to delete reference: %w", err)
	}
	return nil
}

// DeleteByUser prunes every reference a user owns, returning the count.
// Called on disconnect so the store never holds entries for users who are no
// longer connected.
func (s *DynamoReferenceStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, errors.New("calendar: userID required")
	}

	deleted := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String(userIndexName),
			KeyConditionExpression: aws.String("userId = :u"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":u": &types.AttributeValueMemberS{Value: userID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return deleted, fmt.Errorf("calendar: failed to query references for user %s: %w", userID, err)
		}

		for _, item := range out.Items {
			var ref EventReference
			if err := attributevalue.UnmarshalMap(item, &ref); err != nil {
				return deleted, fmt.Errorf("calendar: failed to decode reference: %w", err)
			}
			if err := s.Delete(ctx, ref.AppointmentID, ref.UserID); err != nil {
				return deleted, err
			}
			deleted++
		}

		if out.LastEvaluatedKey == nil {
			return deleted, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// DeleteByAppointment prunes every reference left under one appointment,
// returning the count. Used as cleanup after an appointment is removed so
// failed per-user deletes cannot leave orphaned mappings behind.
func (s *DynamoReferenceStore) DeleteByAppointment(ctx context.Context, appointmentID string) (int, error) {
	if appointmentID == "" {
		return 0, errors.New("calendar: appointmentID required")
	}

	deleted := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("appointmentId = :a"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":a": &types.AttributeValueMemberS{Value: appointmentID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return deleted, fmt.Errorf("calendar: failed to query references for appointment %s: %w", appointmentID, err)
		}

		for _, item := range out.Items {
			var ref EventReference
			if err := attributevalue.UnmarshalMap(item, &ref); err != nil {
				return deleted, fmt.Errorf("calendar: failed to decode reference: %w", err)
			}
			if err := s.Delete(ctx, ref.AppointmentID, ref.UserID); err != nil {
				return deleted, err
			}
			deleted++
		}

		if out.LastEvaluatedKey == nil {
			return deleted, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func refKey(appointmentID, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"appointmentId": &types.AttributeValueMemberS{Value: appointmentID},
		"userId":        &types.AttributeValueMemberS{Value: userID},
	}
}
