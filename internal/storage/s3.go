package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore is the file storage surface the services depend on. The backing
// bucket (S3 or any S3-compatible store such as R2) is reached only through
// presigned URLs and direct object reads.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key string, expiry time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type s3Store struct {
	client *s3.Client
	bucket string
}

// NewS3StoreFromEnv builds the store from S3_* environment variables.
// S3_ENDPOINT is optional and used for S3-compatible providers.
func NewS3StoreFromEnv(ctx context.Context) (ObjectStore, error) {
	accessKey := os.Getenv("S3_ACCESS_KEY_ID")
	secretKey := os.Getenv("S3_SECRET_ACCESS_KEY")
	bucket := os.Getenv("S3_BUCKET")
	if accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY and S3_BUCKET must be set")
	}

	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "auto"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &s3Store{client: client, bucket: bucket}, nil
}

// PresignUpload returns a time-limited PUT URL so clients upload directly to
// the bucket without the file passing through this server.
func (s *s3Store) PresignUpload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	presigner := s3.NewPresignClient(s.client)
	presigned, err := presigner.PresignPutObject(ctx,
		&s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		},
		func(po *s3.PresignOptions) {
			po.Expires = expiry
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload URL: %w", err)
	}
	return presigned.URL, nil
}

func (s *s3Store) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	presigned, err := presigner.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		},
		func(po *s3.PresignOptions) {
			po.Expires = expiry
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign download URL: %w", err)
	}
	return presigned.URL, nil
}

func (s *s3Store) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Disabled returns a store whose every operation fails with the given cause.
// The server uses it when S3 credentials are absent, so everything that does
// not touch file storage keeps working.
func Disabled(cause error) ObjectStore {
	return &disabledStore{cause: cause}
}

type disabledStore struct {
	cause error
}

func (d *disabledStore) PresignUpload(context.Context, string, time.Duration) (string, error) {
	return "", fmt.Errorf("object storage is not configured: %w", d.cause)
}

func (d *disabledStore) PresignDownload(context.Context, string, time.Duration) (string, error) {
	return "", fmt.Errorf("object storage is not configured: %w", d.cause)
}

func (d *disabledStore) Download(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("object storage is not configured: %w", d.cause)
}

func (d *disabledStore) Delete(context.Context, string) error {
	return fmt.Errorf("object storage is not configured: %w", d.cause)
}
