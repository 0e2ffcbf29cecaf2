package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

type mockReferencesDynamo struct {
	putInput     *dynamodb.PutItemInput
	getInput     *dynamodb.GetItemInput
	deleteInputs []*dynamodb.DeleteItemInput
	queryInput   *dynamodb.QueryInput

	getOutput    *dynamodb.GetItemOutput
	queryOutputs []*dynamodb.QueryOutput
	queryCalls   int
	err          error
}

func (m *mockReferencesDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = in
	return &dynamodb.PutItemOutput{}, m.err
}

func (m *mockReferencesDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.getInput = in
	if m.err != nil {
		return nil, m.err
	}
	if m.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.getOutput, nil
}

func (m *mockReferencesDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.deleteInputs = append(m.deleteInputs, in)
	return &dynamodb.DeleteItemOutput{}, m.err
}

func (m *mockReferencesDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.queryInput = in
	if m.err != nil {
		return nil, m.err
	}
	out := m.queryOutputs[m.queryCalls]
	m.queryCalls++
	return out, nil
}

func mustMarshalReference(t *testing.T, ref *EventReference) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(ref)
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func TestDynamoReferenceStore_PutStampsUpdatedAt(t *testing.T) {
	mock := &mockReferencesDynamo{}
	store := NewDynamoReferenceStore(mock, "calendar_event_refs", logging.Default())

	ref := &EventReference{AppointmentID: "A1", UserID: "U1", EventID: "E1"}
	if err := store.Put(context.Background(), ref); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := time.Parse(time.RFC3339Nano, ref.UpdatedAt); err != nil {
		t.Errorf("UpdatedAt is not RFC3339Nano: %v", err)
	}

	var stored EventReference
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.AppointmentID != "A1" || stored.UserID != "U1" || stored.EventID != "E1" {
		t.Errorf("unexpected stored item: %+v", stored)
	}
}

func TestDynamoReferenceStore_PutRejectsIncomplete(t *testing.T) {
	store := NewDynamoReferenceStore(&mockReferencesDynamo{}, "refs", logging.Default())

	for _, ref := range []*EventReference{
		nil,
		{UserID: "U1", EventID: "E1"},
		{AppointmentID: "A1", EventID: "E1"},
		{AppointmentID: "A1", UserID: "U1"},
	} {
		if err := store.Put(context.Background(), ref); err == nil {
			t.Errorf("expected error for incomplete reference %+v", ref)
		}
	}
}

func TestDynamoReferenceStore_GetNotFound(t *testing.T) {
	store := NewDynamoReferenceStore(&mockReferencesDynamo{}, "refs", logging.Default())

	_, err := store.Get(context.Background(), "A1", "U1")
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
}

func TestDynamoReferenceStore_GetUsesCompositeKey(t *testing.T) {
	want := &EventReference{AppointmentID: "A1", UserID: "U1", EventID: "E1"}
	mock := &mockReferencesDynamo{getOutput: &dynamodb.GetItemOutput{Item: mustMarshalReference(t, want)}}
	store := NewDynamoReferenceStore(mock, "refs", logging.Default())

	got, err := store.Get(context.Background(), "A1", "U1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.EventID != "E1" {
		t.Errorf("got %+v", got)
	}

	pk, _ := mock.getInput.Key["appointmentId"].(*types.AttributeValueMemberS)
	sk, _ := mock.getInput.Key["userId"].(*types.AttributeValueMemberS)
	if pk == nil || pk.Value != "A1" || sk == nil || sk.Value != "U1" {
		t.Errorf("unexpected key: %+v", mock.getInput.Key)
	}
}

func TestDynamoReferenceStore_DeleteByUser(t *testing.T) {
	mock := &mockReferencesDynamo{queryOutputs: []*dynamodb.QueryOutput{{
		Items: []map[string]types.AttributeValue{
			mustMarshalReference(t, &EventReference{AppointmentID: "A1", UserID: "U1", EventID: "E1"}),
			mustMarshalReference(t, &EventReference{AppointmentID: "A2", UserID: "U1", EventID: "E2"}),
		},
	}}}
	store := NewDynamoReferenceStore(mock, "refs", logging.Default())

	n, err := store.DeleteByUser(context.Background(), "U1")
	if err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if aws.ToString(mock.queryInput.IndexName) != userIndexName {
		t.Errorf("expected query on %s, got %s", userIndexName, aws.ToString(mock.queryInput.IndexName))
	}
	if len(mock.deleteInputs) != 2 {
		t.Errorf("expected 2 delete calls, got %d", len(mock.deleteInputs))
	}
}

func TestDynamoReferenceStore_DeleteByAppointment(t *testing.T) {
	mock := &mockReferencesDynamo{queryOutputs: []*dynamodb.QueryOutput{{
		Items: []map[string]types.AttributeValue{
			mustMarshalReference(t, &EventReference{AppointmentID: "A1", UserID: "U1", EventID: "E1"}),
			mustMarshalReference(t, &EventReference{AppointmentID: "A1", UserID: "U2", EventID: "E2"}),
		},
	}}}
	store := NewDynamoReferenceStore(mock, "refs", logging.Default())

	n, err := store.DeleteByAppointment(context.Background(), "A1")
	if err != nil {
		t.Fatalf("DeleteByAppointment failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	// Base-table query on the partition key, not the user GSI.
	if mock.queryInput.IndexName != nil {
		t.Errorf("expected base-table query, got index %s", aws.ToString(mock.queryInput.IndexName))
	}
	if len(mock.deleteInputs) != 2 {
		t.Errorf("expected 2 delete calls, got %d", len(mock.deleteInputs))
	}
}
