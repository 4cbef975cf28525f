// Package media stores uploaded files (cover images, sermon audio) in an
// S3-compatible bucket.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Store uploads and serves media objects.
type Store struct {
	cfg    Config
	client s3Client
}

func NewStore(cfg Config) *Store {
	st := &Store{cfg: cfg}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		st.client = newS3Client(cfg)
	}
	return st
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured returns true when the bucket credentials are set.
func (st *Store) Configured() bool {
	return st.client != nil
}

// Upload stores an object under a generated key in the given folder and
// returns the key. The original filename only contributes its extension.
func (st *Store) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	if !st.Configured() {
		return "", fmt.Errorf("media storage not configured")
	}

	key := path.Join(folder, uuid.NewString()+strings.ToLower(path.Ext(filename)))
	_, err := st.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(st.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// Fetch returns the object body. The caller must close it.
func (st *Store) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	if !st.Configured() {
		return nil, fmt.Errorf("media storage not configured")
	}

	out, err := st.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(st.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return out.Body, nil
}

func (st *Store) Delete(ctx context.Context, key string) error {
	if !st.Configured() {
		return fmt.Errorf("media storage not configured")
	}

	_, err := st.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(st.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PublicURL maps an object key to its public address behind the CDN.
func (st *Store) PublicURL(key string) string {
	return strings.TrimSuffix(st.cfg.PublicURL, "/") + "/" + strings.TrimPrefix(key, "/")
}
