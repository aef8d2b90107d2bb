package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// S3Config carries the settings for an S3-compatible bucket (AWS, minio,
// R2); endpoint is the full base URL.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type S3Store struct {
	client *s3.Client
	bucket string
	tracer trace.Tracer
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		),
		UsePathStyle: true,
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		tracer: otel.Tracer("printsite/storage/s3"),
	}, nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if key = strings.TrimSpace(key); key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	ctx, span := s.tracer.Start(ctx, "S3.Open", trace.WithAttributes(attribute.String("s3.key", key)))

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}

	return &spanClosingReader{
		ReadCloser: out.Body,
		span:       span,
	}, nil
}

func (s *S3Store) Save(ctx context.Context, key string, body io.Reader) error {
	ctx, span := s.tracer.Start(ctx, "S3.Save", trace.WithAttributes(attribute.String("s3.key", key)))
	defer span.End()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return err
}

func (s *S3Store) Exists(ctx context.Context, key string) bool {
	if key = strings.TrimSpace(key); key == "" {
		return false
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return err == nil
}

type spanClosingReader struct {
	io.ReadCloser
	span trace.Span
}

func (r *spanClosingReader) Close() error {
	r.span.End()
	return r.ReadCloser.Close()
}
