package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cloudpatrol/awsscan/internal/models"
)

// s3APIClient is the narrow S3 interface used for report upload.
type s3APIClient interface {
	PutObject(ctx context.Context, params *s3svc.PutObjectInput, optFns ...func(*s3svc.Options)) (*s3svc.PutObjectOutput, error)
}

// S3Uploader writes a findings report to an S3 object using the same
// serialisation as WriteReport.
type S3Uploader struct {
	client s3APIClient
}

// NewS3Uploader returns an S3Uploader backed by the real AWS SDK.
func NewS3Uploader(cfg aws.Config) *S3Uploader {
	return &S3Uploader{client: s3svc.NewFromConfig(cfg)}
}

// NewS3UploaderWithClient returns an S3Uploader using the supplied client.
// Pass a fake in tests.
func NewS3UploaderWithClient(client s3APIClient) *S3Uploader {
	return &S3Uploader{client: client}
}

// Upload serialises records and puts them at s3://bucket/key.
func (u *S3Uploader) Upload(ctx context.Context, bucket, key string, records []models.FindingRecord) error {
	if records == nil {
		records = []models.FindingRecord{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = u.client.PutObject(ctx, &s3svc.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload report to s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
