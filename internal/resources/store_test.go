package resources

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

type mockS3 struct {
	listOutput  *s3.ListObjectsV2Output
	deletedKeys []string
	headErr     error
}

func (m *mockS3) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.listOutput == nil {
		return &s3.ListObjectsV2Output{}, nil
	}
	return m.listOutput, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.deletedKeys = append(m.deletedKeys, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

type mockPresigner struct {
	putInput *s3.PutObjectInput
	getInput *s3.GetObjectInput
}

func (m *mockPresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	m.putInput = in
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3.test/put/" + aws.ToString(in.Key)}, nil
}

func (m *mockPresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	m.getInput = in
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3.test/get/" + aws.ToString(in.Key)}, nil
}

func TestStore_PrepareUpload(t *testing.T) {
	presigner := &mockPresigner{}
	store := NewStore(&mockS3{}, presigner, "caseflow-resources", logging.Default())

	ticket, err := store.PrepareUpload(context.Background(), "consent-form.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("PrepareUpload failed: %v", err)
	}

	if !strings.HasPrefix(ticket.Key, "resources/") || !strings.HasSuffix(ticket.Key, "/consent-form.pdf") {
		t.Errorf("unexpected key: %s", ticket.Key)
	}
	if ticket.UploadURL == "" || ticket.ExpiresIn <= 0 {
		t.Errorf("incomplete ticket: %+v", ticket)
	}
	if aws.ToString(presigner.putInput.ContentType) != "application/pdf" {
		t.Errorf("content type not forwarded: %+v", presigner.putInput)
	}
}

func TestStore_PrepareUploadRequiresName(t *testing.T) {
	store := NewStore(&mockS3{}, &mockPresigner{}, "bucket", logging.Default())

	if _, err := store.PrepareUpload(context.Background(), "  ", ""); !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}
}

func TestStore_DownloadURL(t *testing.T) {
	store := NewStore(&mockS3{}, &mockPresigner{}, "bucket", logging.Default())

	url, err := store.DownloadURL(context.Background(), "resources/abc/handout.pdf")
	if err != nil {
		t.Fatalf("DownloadURL failed: %v", err)
	}
	if !strings.Contains(url, "resources/abc/handout.pdf") {
		t.Errorf("unexpected url: %s", url)
	}
}

func TestStore_DownloadURLRejectsForeignKeys(t *testing.T) {
	store := NewStore(&mockS3{}, &mockPresigner{}, "bucket", logging.Default())

	if _, err := store.DownloadURL(context.Background(), "secrets/creds.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for out-of-prefix key, got %v", err)
	}
}

func TestStore_DownloadURLMissingObject(t *testing.T) {
	store := NewStore(&mockS3{headErr: errors.New("NotFound")}, &mockPresigner{}, "bucket", logging.Default())

	if _, err := store.DownloadURL(context.Background(), "resources/abc/gone.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock := &mockS3{listOutput: &s3.ListObjectsV2Output{Contents: []s3types.Object{
		{Key: aws.String("resources/a/old.pdf"), Size: aws.Int64(10), LastModified: aws.Time(old)},
		{Key: aws.String("resources/b/new.pdf"), Size: aws.Int64(20), LastModified: aws.Time(recent)},
	}}}
	store := NewStore(mock, &mockPresigner{}, "bucket", logging.Default())

	resources, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(resources) != 2 || resources[0].Name != "new.pdf" {
		t.Errorf("expected newest first, got %+v", resources)
	}
}

func TestStore_Delete(t *testing.T) {
	mock := &mockS3{}
	store := NewStore(mock, &mockPresigner{}, "bucket", logging.Default())

	if err := store.Delete(context.Background(), "resources/a/old.pdf"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(mock.deletedKeys) != 1 {
		t.Errorf("expected delete call, got %v", mock.deletedKeys)
	}
	if err := store.Delete(context.Background(), "other/key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign key, got %v", err)
	}
}
