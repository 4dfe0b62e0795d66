package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client signs object URLs for a single bucket
type S3Client struct {
	presigner *s3.PresignClient
	bucket    string
}

// NewS3Client creates a new S3 client from AWS config.
func NewS3Client(cfg sdkaws.Config, bucket string) *S3Client {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := Endpoint("S3"); ep != "" {
			o.BaseEndpoint = sdkaws.String(ep)
			o.UsePathStyle = true
		}
	})
	return &S3Client{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
	}
}

// PresignGet returns a time limited GET URL for key.
func (c *S3Client) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if c.bucket == "" {
		return "", fmt.Errorf("no bucket configured")
	}
	presigned, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: sdkaws.String(c.bucket),
		Key:    sdkaws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign get object: %w", err)
	}
	return presigned.URL, nil
}
