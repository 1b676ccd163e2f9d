package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Store keeps images in a bucket. Credentials come from the default AWS chain.
type S3Store struct {
	limits
	bucket   string
	baseURL  string
	client   s3iface.S3API
	uploader *s3manager.Uploader
}

// NewS3Store builds a store for bucket. A non-empty endpoint targets an
// S3-compatible service with path-style addressing.
func NewS3Store(bucket, region, endpoint string, maxBytes int64) (*S3Store, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	client := s3.New(sess)

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region)
	if endpoint != "" {
		baseURL = strings.TrimRight(endpoint, "/") + "/" + bucket + "/"
	}
	return newS3Store(client, bucket, baseURL, maxBytes), nil
}

func newS3Store(client s3iface.S3API, bucket, baseURL string, maxBytes int64) *S3Store {
	return &S3Store{
		limits:   limits{maxBytes: maxBytes},
		bucket:   bucket,
		baseURL:  baseURL,
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
	}
}

func (s *S3Store) Save(ctx context.Context, u Upload) (string, error) {
	contentType, err := s.sniff(u)
	if err != nil {
		return "", err
	}
	name := newObjectName(contentType)
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(u.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return name, nil
}

func (s *S3Store) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return fmt.Errorf("refusing to delete %q", name)
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	return err
}

func (s *S3Store) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.baseURL + name
}
