package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Storage keeps exports in a bucket and returns presigned GET URLs.
type S3Storage struct {
	client *s3.S3
	bucket string
	ttl    time.Duration
}

// NewS3Storage builds an S3 client from the default credential chain. endpoint may point at
// an S3 compatible service such as MinIO.
func NewS3Storage(bucket, region, endpoint string, ttl time.Duration) (*S3Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &S3Storage{client: s3.New(sess), bucket: bucket, ttl: ttl}, nil
}

// Put uploads the object.
func (s *S3Storage) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// URL presigns a GET request for the object.
func (s *S3Storage) URL(_ context.Context, _ string, key string) (string, time.Time, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	signed, err := req.Presign(s.ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return signed, time.Now().Add(s.ttl), nil
}
