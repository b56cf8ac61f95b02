package s3export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Client wraps the S3 API for uploading account export snapshots.
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new S3 client for the export bucket and verifies the
// connection. In non-production environments a missing bucket is created.
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("s3 export storage is not configured")
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("s3 connection test failed: %w", err)
	}

	return client, nil
}

func (c *Client) testConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.Bucket),
	})
	if err != nil {
		if GetAppEnv() != "prod" {
			log.Infof("Bucket %s not found, creating it", c.config.Bucket)
			return c.createBucket(ctx)
		}
		return fmt.Errorf("bucket %s not accessible: %w", c.config.Bucket, err)
	}

	return nil
}

func (c *Client) createBucket(ctx context.Context) error {
	_, err := c.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(c.config.Bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.config.Bucket, err)
	}
	return nil
}

// UploadBytes stores a serialized export under the given object key.
func (c *Client) UploadBytes(ctx context.Context, objectKey string, data []byte, contentType string) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.Bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"upload-source": "cinefila-export",
			"uploaded-at":   time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}

	log.Infof("Uploaded account export %s (%d bytes)", objectKey, len(data))
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.config.Bucket
}
