package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/heritage-archive/archive-service/internal/config"
)

// UploadURL is a presigned PUT the client uploads directly against.
type UploadURL struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// Presigner issues upload URLs for the video bucket.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (*UploadURL, error)
}

// S3Presigner presigns uploads against the configured bucket.
type S3Presigner struct {
	presign *s3.PresignClient
	cfg     config.StorageConfig
}

// NewS3Presigner builds the presign client from the default credential chain.
func NewS3Presigner(ctx context.Context, cfg config.StorageConfig) (*S3Presigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Presigner{
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

// PresignUpload signs a PUT for the given object key.
func (p *S3Presigner) PresignUpload(ctx context.Context, key, contentType string) (*UploadURL, error) {
	ttl := p.cfg.UploadTTL()
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &UploadURL{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}
