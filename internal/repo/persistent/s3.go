package persistent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/metrics"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/objectkey"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/s3client"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type BlobRepo struct {
	*s3client.S3Client
	bucket       string
	publicDomain string
}

func NewBlobRepo(s3c *s3client.S3Client, bucket, publicDomain string) *BlobRepo {
	return &BlobRepo{s3c, bucket, publicDomain}
}

func (r *BlobRepo) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	start := time.Now()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	_, err := r.Client.PutObject(ctx, input)
	if err != nil {
		metrics.RecordBlob("put", metrics.StatusError, time.Since(start).Seconds())

		return fmt.Errorf("BlobRepo - Upload - r.Client.PutObject: %w", err)
	}

	metrics.RecordBlob("put", metrics.StatusSuccess, time.Since(start).Seconds())

	return nil
}

// Delete removes key. A missing object counts as deleted.
func (r *BlobRepo) Delete(ctx context.Context, key string) error {
	start := time.Now()

	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			metrics.RecordBlob("delete", metrics.StatusNotFound, time.Since(start).Seconds())

			return nil
		}
		metrics.RecordBlob("delete", metrics.StatusError, time.Since(start).Seconds())

		return fmt.Errorf("BlobRepo - Delete - r.Client.DeleteObject: %w", err)
	}

	metrics.RecordBlob("delete", metrics.StatusSuccess, time.Since(start).Seconds())

	return nil
}

// PresignPut authorizes one PUT of key with exactly contentType.
func (r *BlobRepo) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	start := time.Now()

	req, err := r.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		metrics.RecordBlob("presign_put", metrics.StatusError, time.Since(start).Seconds())

		return "", fmt.Errorf("BlobRepo - PresignPut - r.Presigner.PresignPutObject: %w", err)
	}

	metrics.RecordBlob("presign_put", metrics.StatusSuccess, time.Since(start).Seconds())

	return req.URL, nil
}

func (r *BlobRepo) PublicURL(key string) string {
	return objectkey.PublicURL(r.bucket, r.publicDomain, key)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}
