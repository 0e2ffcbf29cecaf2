package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/gorilla/websocket"
)

type memoryStore struct {
	msgs []*Message
	err  error
}

func (m *memoryStore) Post(_ context.Context, req *PostMessageRequest) (*Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	msg := &Message{
		ID:       "M1",
		ThreadID: req.ThreadID,
		AuthorID: req.AuthorID,
		Body:     req.Body,
		SentAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

func (m *memoryStore) ListThread(_ context.Context, threadID string) ([]*Message, error) {
	if threadID == "" {
		return nil, ErrMissingThread
	}
	var out []*Message
	for _, msg := range m.msgs {
		if msg.ThreadID == threadID {
			out = append(out, msg)
		}
	}
	return out, m.err
}

func TestHandler_PostAndList(t *testing.T) {
	store := &memoryStore{}
	h := NewHandler(store, nil, logging.Default())

	body, _ := json.Marshal(PostMessageRequest{ThreadID: "T1", AuthorID: "U1", Body: "Hello"})
	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Post(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/messages?threadId=T1", nil)
	rec = httptest.NewRecorder()
	h.ListThread(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res struct {
		Messages []*Message `json:"messages"`
		Count    int        `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Count != 1 || res.Messages[0].Body != "Hello" {
		t.Errorf("unexpected response: %+v", res)
	}
}

func TestHandler_PostValidation(t *testing.T) {
	h := NewHandler(&memoryStore{}, nil, logging.Default())

	for _, payload := range []PostMessageRequest{
		{AuthorID: "U1", Body: "hi"},
		{ThreadID: "T1", AuthorID: "U1", Body: "   "},
	} {
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		h.Post(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("payload %+v: status = %d, want 400", payload, rec.Code)
		}
	}
}

func TestHandler_ListRequiresThread(t *testing.T) {
	h := NewHandler(&memoryStore{}, nil, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	h.ListThread(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub(logging.Default())
	srv := httptest.NewServer(http.HandlerFunc(hub.Subscribe))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?threadId=T1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Wait for the subscription to register.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount("T1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(&Message{ID: "M1", ThreadID: "T1", Body: "ping"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.ID != "M1" || got.Body != "ping" {
		t.Errorf("unexpected message: %+v", got)
	}
}

func TestHub_SubscribeRequiresThread(t *testing.T) {
	hub := NewHub(logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/messages/ws", nil)
	rec := httptest.NewRecorder()
	hub.Subscribe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPostMessageRequest_Validate(t *testing.T) {
	if err := (&PostMessageRequest{ThreadID: "T1", Body: "hi"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&PostMessageRequest{Body: "hi"}).Validate(); !errors.Is(err, ErrMissingThread) {
		t.Errorf("expected ErrMissingThread, got %v", err)
	}
}
