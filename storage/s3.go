package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader copies local files into the pipeline's object-store layout.
type Uploader interface {
	Upload(ctx context.Context, localPath, bucket, key string) error
}

// S3Uploader uploads files to S3
type S3Uploader struct {
	client *s3.Client
}

// NewS3Uploader creates an uploader against the given region
func NewS3Uploader(ctx context.Context, region string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &S3Uploader{client: s3.NewFromConfig(cfg)}, nil
}

// Upload puts one local file at bucket/key
func (u *S3Uploader) Upload(ctx context.Context, localPath, bucket, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
