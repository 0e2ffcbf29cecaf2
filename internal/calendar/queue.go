package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

type sqsAPI interface {
	SendMessage(context.Context, *sqs.SendMessageInput, ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// BackfillJob is the queued request to sync every existing appointment into
// one newly connected user's calendar.
type BackfillJob struct {
	UserID     string `json:"userId"`
	EnqueuedAt string `json:"enqueuedAt"`
}

// QueuedJob pairs a decoded job with its receipt handle for acknowledgement.
type QueuedJob struct {
	Job           BackfillJob
	ReceiptHandle string
}

// BackfillPublisher enqueues backfill jobs.
type BackfillPublisher interface {
	Enqueue(ctx context.Context, job BackfillJob) error
}

// Queue is the SQS-backed backfill job queue shared by the API server
// (producer) and the sync worker (consumer).
type Queue struct {
	client   sqsAPI
	queueURL string
	logger   *logging.Logger
}

var _ BackfillPublisher = (*Queue)(nil)

// NewQueue builds a queue on the provided SQS client.
func NewQueue(client sqsAPI, queueURL string, logger *logging.Logger) *Queue {
	if client == nil {
		panic("calendar: sqs client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Queue{client: client, queueURL: queueURL, logger: logger}
}

// Enqueue publishes a backfill job.
func (q *Queue) Enqueue(ctx context.Context, job BackfillJob) error {
	if job.UserID == "" {
		return errors.New("calendar: backfill job requires userID")
	}
	if job.EnqueuedAt == "" {
		job.EnqueuedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("calendar: failed to marshal backfill job: %w", err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("calendar: failed to enqueue backfill job: %w", err)
	}
	q.logger.Info("backfill job enqueued", "user_id", job.UserID)
	return nil
}

// Receive long-polls for pending jobs. Malformed messages are acknowledged
// and dropped so they cannot wedge the queue.
func (q *Queue) Receive(ctx context.Context, max int32, wait time.Duration) ([]QueuedJob, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: max,
		WaitTimeSeconds:     int32(wait / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to receive backfill jobs: %w", err)
	}

	jobs := make([]QueuedJob, 0, len(out.Messages))
	for _, msg := range out.Messages {
		var job BackfillJob
		if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &job); err != nil || job.UserID == "" {
			q.logger.Warn("dropping malformed backfill message", "error", err)
			_ = q.Ack(ctx, aws.ToString(msg.ReceiptHandle))
			continue
		}
		jobs = append(jobs, QueuedJob{Job: job, ReceiptHandle: aws.ToString(msg.ReceiptHandle)})
	}
	return jobs, nil
}

// Ack deletes a processed message.
func (q *Queue) Ack(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("calendar: failed to ack backfill job: %w", err)
	}
	return nil
}
