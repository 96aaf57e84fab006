package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

var ErrInvalidKey = errors.New("storage: invalid object key")

type Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL is prepended to object keys to form the returned URL.
	PublicBaseURL string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage uploads objects to an S3-compatible bucket (AWS, MinIO, Supabase storage).
type S3Storage struct {
	client objectPutter
	opts   Options
	log    *zap.Logger
}

func NewS3Storage(ctx context.Context, opts Options, log *zap.Logger) (*S3Storage, error) {
	if opts.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client, opts: opts, log: log}, nil
}

// PutObject uploads body under key and returns the object's URL.
func (s *S3Storage) PutObject(ctx context.Context, key, contentType string, body []byte) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		s.log.Error("failed to upload object",
			zap.String("bucket", s.opts.Bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.ObjectURL(key), nil
}

// ObjectURL is the public URL of key.
func (s *S3Storage) ObjectURL(key string) string {
	escaped := escapeKey(key)
	switch {
	case s.opts.PublicBaseURL != "":
		return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/" + escaped
	case s.opts.Endpoint != "":
		return strings.TrimRight(s.opts.Endpoint, "/") + "/" + s.opts.Bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, escaped)
	}
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
