package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds static credentials for an S3-compatible endpoint.
type S3Config struct {
	KeyID        string
	Secret       string
	Region       string
	Endpoint     string // host or URL; empty uses AWS
	UsePathStyle bool
}

// S3 stores objects in Amazon S3 or an S3-compatible service.
type S3 struct {
	client *s3.Client
}

// NewS3 creates an S3 backend from static credentials.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.KeyID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("S3 key id and secret are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if Scheme(endpoint) == "" {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
	}
	return &S3{client: s3.New(opts)}, nil
}

func (s *S3) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3Path(uri)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %q: %w", uri, err)
	}
	return out.Body, nil
}

func (s *S3) Put(ctx context.Context, uri string, data []byte) error {
	bucket, key, err := ParseS3Path(uri)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %q: %w", uri, err)
	}
	return nil
}
