package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cfg "github.com/markdave123-py/docscope/internal/config"
	"github.com/markdave123-py/docscope/internal/core"
)

type S3Client struct {
	client s3API
	region string
	bucket string
}

var _ core.ObjectClient = (*S3Client)(nil)

func NewS3Client(ctx context.Context, cfg *cfg.Config) (*S3Client, error) {
	if cfg.AwsAccessKey == "" || cfg.AwsSecretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.AwsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	slog.Info("object storage configured", "bucket", cfg.BucketName, "region", cfg.AwsRegion)
	return newS3Client(s3.NewFromConfig(awsCfg), cfg.AwsRegion, cfg.BucketName), nil
}

func newS3Client(client s3API, region, bucket string) *S3Client {
	return &S3Client{client: client, region: region, bucket: bucket}
}

// UploadFile uploads an object to the configured bucket and returns its URL.
func (c *S3Client) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	uploader := manager.NewUploader(c.client)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	}

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := uploader.Upload(ctxUpload, input); err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key), nil
}

// DeletePrefix removes every object under prefix, one listing page per batch delete.
func (c *S3Client) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, errors.New("refusing to delete with an empty prefix")
	}

	ctxDel, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pages := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	deleted := 0
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctxDel)
		if err != nil {
			return deleted, fmt.Errorf("s3 list failed: %w", err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := c.client.DeleteObjects(ctxDel, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("s3 batch delete failed: %w", err)
		}
		deleted += len(ids) - len(out.Errors)
		if len(out.Errors) > 0 {
			return deleted, fmt.Errorf("s3 batch delete: %d objects not removed, first: %s",
				len(out.Errors), aws.ToString(out.Errors[0].Message))
		}
	}
	return deleted, nil
}
