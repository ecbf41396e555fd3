package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"puja-service/internal/config"
	"puja-service/pkg/common"
)

// ObjectStorage stores uploaded documents and returns their public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, category, originalName, contentType string, body io.Reader) (url string, key string, err error)
}

// S3PutObjectAPI is the part of *s3.Client the storage service uses.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type StorageService struct {
	Client   S3PutObjectAPI
	Bucket   string
	Region   string
	Endpoint string
	now      func() time.Time
}

func NewStorageService(client S3PutObjectAPI, bucket, region, endpoint string) *StorageService {
	return &StorageService{
		Client:   client,
		Bucket:   bucket,
		Region:   region,
		Endpoint: strings.TrimRight(endpoint, "/"),
		now:      time.Now,
	}
}

// NewS3Client builds an S3 client from config. A custom endpoint switches to
// path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *StorageService) Upload(ctx context.Context, category, originalName, contentType string, body io.Reader) (string, string, error) {
	if s.Bucket == "" {
		return "", "", fmt.Errorf("object storage bucket is not configured")
	}

	key := common.ObjectKey(category, originalName, s.now())
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return "", "", fmt.Errorf("upload %s: %w", key, err)
	}

	log.WithFields(log.Fields{"bucket": s.Bucket, "key": key}).Info("Object uploaded")
	return s.URL(key), key, nil
}

// URL is the public address of key.
func (s *StorageService) URL(key string) string {
	if s.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.Endpoint, s.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, key)
}
