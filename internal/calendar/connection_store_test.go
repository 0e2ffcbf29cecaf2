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

type mockConnectionsDynamo struct {
	putInput    *dynamodb.PutItemInput
	getInput    *dynamodb.GetItemInput
	deleteInput *dynamodb.DeleteItemInput
	updateInput *dynamodb.UpdateItemInput
	scanCalls   int

	getOutput   *dynamodb.GetItemOutput
	scanOutputs []*dynamodb.ScanOutput
	err         error
}

func (m *mockConnectionsDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = in
	return &dynamodb.PutItemOutput{}, m.err
}

func (m *mockConnectionsDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.getInput = in
	if m.err != nil {
		return nil, m.err
	}
	if m.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.getOutput, nil
}

func (m *mockConnectionsDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.deleteInput = in
	return &dynamodb.DeleteItemOutput{}, m.err
}

func (m *mockConnectionsDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInput = in
	return &dynamodb.UpdateItemOutput{}, m.err
}

func (m *mockConnectionsDynamo) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := m.scanOutputs[m.scanCalls]
	m.scanCalls++
	return out, nil
}

func mustMarshalConnection(t *testing.T, conn *Connection) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(conn)
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func TestDynamoConnectionStore_PutStampsConnectedAt(t *testing.T) {
	mock := &mockConnectionsDynamo{}
	store := NewDynamoConnectionStore(mock, "calendar_connections", logging.Default())

	conn := &Connection{UserID: "U1", Email: "u1@clinic.test", AccessToken: "at", RefreshToken: "rt", TokenExpiry: time.Now().Add(time.Hour)}
	if err := store.Put(context.Background(), conn); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if aws.ToString(mock.putInput.TableName) != "calendar_connections" {
		t.Errorf("wrong table: %s", aws.ToString(mock.putInput.TableName))
	}
	if conn.ConnectedAt == "" {
		t.Error("expected ConnectedAt to be stamped")
	}
	if _, err := time.Parse(time.RFC3339Nano, conn.ConnectedAt); err != nil {
		t.Errorf("ConnectedAt is not RFC3339Nano: %v", err)
	}

	var stored Connection
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.UserID != "U1" || stored.Email != "u1@clinic.test" || stored.RefreshToken != "rt" {
		t.Errorf("unexpected stored item: %+v", stored)
	}
}

func TestDynamoConnectionStore_GetNotConnected(t *testing.T) {
	store := NewDynamoConnectionStore(&mockConnectionsDynamo{}, "conns", logging.Default())

	_, err := store.Get(context.Background(), "U9")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestDynamoConnectionStore_GetRoundTrip(t *testing.T) {
	want := &Connection{UserID: "U1", Email: "u1@clinic.test", AccessToken: "at"}
	mock := &mockConnectionsDynamo{getOutput: &dynamodb.GetItemOutput{Item: mustMarshalConnection(t, want)}}
	store := NewDynamoConnectionStore(mock, "conns", logging.Default())

	got, err := store.Get(context.Background(), "U1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != want.UserID || got.Email != want.Email || got.AccessToken != want.AccessToken {
		t.Errorf("got %+v, want %+v", got, want)
	}

	key, ok := mock.getInput.Key["userId"].(*types.AttributeValueMemberS)
	if !ok || key.Value != "U1" {
		t.Errorf("unexpected key: %+v", mock.getInput.Key)
	}
}

func TestDynamoConnectionStore_ListPaginates(t *testing.T) {
	page1 := &dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			mustMarshalConnection(t, &Connection{UserID: "U1"}),
			mustMarshalConnection(t, &Connection{UserID: "U2"}),
		},
		LastEvaluatedKey: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: "U2"},
		},
	}
	page2 := &dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			mustMarshalConnection(t, &Connection{UserID: "U3"}),
		},
	}
	mock := &mockConnectionsDynamo{scanOutputs: []*dynamodb.ScanOutput{page1, page2}}
	store := NewDynamoConnectionStore(mock, "conns", logging.Default())

	conns, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(conns) != 3 {
		t.Fatalf("expected 3 connections across pages, got %d", len(conns))
	}
	if mock.scanCalls != 2 {
		t.Errorf("expected 2 scan pages, got %d", mock.scanCalls)
	}
}

func TestDynamoConnectionStore_TouchLastSync(t *testing.T) {
	mock := &mockConnectionsDynamo{}
	store := NewDynamoConnectionStore(mock, "conns", logging.Default())

	if err := store.TouchLastSync(context.Background(), "U1"); err != nil {
		t.Fatalf("TouchLastSync failed: %v", err)
	}
	if aws.ToString(mock.updateInput.UpdateExpression) != "SET lastSyncAt = :ts" {
		t.Errorf("unexpected update expression: %s", aws.ToString(mock.updateInput.UpdateExpression))
	}
	if aws.ToString(mock.updateInput.ConditionExpression) != "attribute_exists(userId)" {
		t.Errorf("expected existence condition, got %s", aws.ToString(mock.updateInput.ConditionExpression))
	}
}

func TestDynamoConnectionStore_DeleteTargetsUser(t *testing.T) {
	mock := &mockConnectionsDynamo{}
	store := NewDynamoConnectionStore(mock, "conns", logging.Default())

	if err := store.Delete(context.Background(), "U1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	key, ok := mock.deleteInput.Key["userId"].(*types.AttributeValueMemberS)
	if !ok || key.Value != "U1" {
		t.Errorf("unexpected delete key: %+v", mock.deleteInput.Key)
	}
}
