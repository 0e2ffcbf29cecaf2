// Package resources manages shared practice files (consent forms, handouts)
// in S3, handing out presigned URLs for upload and download.
package resources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/google/uuid"
)

var (
	// ErrMissingName indicates a blank file name.
	ErrMissingName = errors.New("resources: file name is required")

	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("resources: resource not found")
)

// s3API is the subset of the S3 client used by Store.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// presignAPI is the subset of the S3 presign client used by Store.
type presignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Resource describes one stored file.
type Resource struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// UploadTicket is a presigned upload slot for a new resource.
type UploadTicket struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

// Store provides S3-backed resource operations.
type Store struct {
	s3Client  s3API
	presigner presignAPI
	bucket    string
	urlTTL    time.Duration
	logger    *logging.Logger
}

const resourcePrefix = "resources/"

// NewStore creates a resource store over the given bucket.
func NewStore(s3Client s3API, presigner presignAPI, bucket string, logger *logging.Logger) *Store {
	if s3Client == nil || presigner == nil {
		panic("resources: s3 client and presigner cannot be nil")
	}
	if bucket == "" {
		panic("resources: bucket cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		s3Client:  s3Client,
		presigner: presigner,
		bucket:    bucket,
		urlTTL:    15 * time.Minute,
		logger:    logger,
	}
}

// PrepareUpload issues a presigned PUT URL for a new file.
func (s *Store) PrepareUpload(ctx context.Context, name, contentType string) (*UploadTicket, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	key := fmt.Sprintf("%s%s/%s", resourcePrefix, uuid.NewString(), name)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := s.presigner.PresignPutObject(ctx, in, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return nil, fmt.Errorf("resources: presign upload: %w", err)
	}
	return &UploadTicket{
		Key:       key,
		UploadURL: req.URL,
		ExpiresIn: int(s.urlTTL.Seconds()),
	}, nil
}

// DownloadURL issues a presigned GET URL for an existing file.
func (s *Store) DownloadURL(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, resourcePrefix) {
		return "", ErrNotFound
	}
	if _, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return "", ErrNotFound
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return "", fmt.Errorf("resources: presign download: %w", err)
	}
	return req.URL, nil
}

// List returns every stored resource, newest first.
func (s *Store) List(ctx context.Context) ([]Resource, error) {
	var out []Resource
	var token *string
	for {
		page, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(resourcePrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("resources: list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			out = append(out, Resource{
				Key:          key,
				Name:         baseName(key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified).UTC().Format(time.RFC3339),
			})
		}
		if page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}

	sort.Slice(out, func(i, j int) bool { return out[i].LastModified > out[j].LastModified })
	return out, nil
}

// Delete removes a stored file.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, resourcePrefix) {
		return ErrNotFound
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("resources: delete object: %w", err)
	}
	return nil
}

func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
