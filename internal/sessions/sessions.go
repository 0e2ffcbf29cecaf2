// Package sessions stores the clinician's notes for completed sessions.
package sessions

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
	// ErrNotFound indicates the session note does not exist.
	ErrNotFound = errors.New("sessions: note not found")

	// ErrMissingClient indicates no client was referenced.
	ErrMissingClient = errors.New("sessions: client_id is required")

	// ErrEmptyBody indicates a blank note body.
	ErrEmptyBody = errors.New("sessions: body is required")
)

// Note is one session note, linked to a client and optionally an appointment.
type Note struct {
	ID            string `dynamodbav:"id" json:"id"`
	ClientID      string `dynamodbav:"clientId" json:"client_id"`
	AppointmentID string `dynamodbav:"appointmentId" json:"appointment_id,omitempty"`
	Title         string `dynamodbav:"title" json:"title,omitempty"`
	Body          string `dynamodbav:"body" json:"body"`
	CreatedBy     string `dynamodbav:"createdBy" json:"created_by,omitempty"`
	CreatedAt     string `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt     string `dynamodbav:"updatedAt" json:"updated_at"`
}

// CreateNoteRequest is the request body for creating a session note.
type CreateNoteRequest struct {
	ClientID      string `json:"client_id"`
	AppointmentID string `json:"appointment_id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	CreatedBy     string `json:"created_by"`
}

// Validate validates the create note request.
func (r *CreateNoteRequest) Validate() error {
	if r.ClientID == "" {
		return ErrMissingClient
	}
	if strings.TrimSpace(r.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Repository defines session note persistence operations.
type Repository interface {
	Create(ctx context.Context, req *CreateNoteRequest) (*Note, error)
	Get(ctx context.Context, id string) (*Note, error)
	ListByClient(ctx context.Context, clientID string) ([]*Note, error)
	Delete(ctx context.Context, id string) error
}

// DynamoRepository persists session notes to DynamoDB, keyed by id.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("sessions: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("sessions: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{client: client, tableName: tableName, logger: logger}
}

// Create validates and stores a new note.
func (r *DynamoRepository) Create(ctx context.Context, req *CreateNoteRequest) (*Note, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	n := &Note{
		ID:            uuid.NewString(),
		ClientID:      req.ClientID,
		AppointmentID: req.AppointmentID,
		Title:         req.Title,
		Body:          req.Body,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return nil, fmt.Errorf("sessions: failed to marshal note: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("sessions: failed to persist note: %w", err)
	}
	return n, nil
}

// Get fetches one note, ErrNotFound when absent.
func (r *DynamoRepository) Get(ctx context.Context, id string) (*Note, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sessions: failed to fetch note: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var n Note
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, fmt.Errorf("sessions: failed to decode note: %w", err)
	}
	return &n, nil
}

// ListByClient returns a client's notes, newest first.
func (r *DynamoRepository) ListByClient(ctx context.Context, clientID string) ([]*Note, error) {
	var out []*Note
	var startKey map[string]types.AttributeValue
	for {
		page, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("clientId = :c"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":c": &types.AttributeValueMemberS{Value: clientID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("sessions: failed to list notes: %w", err)
		}
		for _, item := range page.Items {
			var n Note
			if err := attributevalue.UnmarshalMap(item, &n); err != nil {
				return nil, fmt.Errorf("sessions: failed to decode note: %w", err)
			}
			out = append(out, &n)
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// Delete removes a note.
func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("sessions: failed to delete note: %w", err)
	}
	return nil
}
