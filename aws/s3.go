package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"hearly/transcription-api/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Objects above this size go through the multipart upload manager
const multipartLimit = 100 << 20

// S3Client wraps one bucket. The audio, transcription output and
// summaries buckets each get their own instance.
type S3Client struct {
	C       *s3.Client
	Presign *s3.PresignClient
	Bucket  *string
}

func NewS3(cfg aws.Config, bucket string) (*S3Client, error) {
	client := s3.NewFromConfig(cfg)

	_, err := client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket '%s' exists, %w", bucket, err)
	}

	return &S3Client{
		C:       client,
		Presign: s3.NewPresignClient(client),
		Bucket:  aws.String(bucket),
	}, nil
}

func (c *S3Client) BucketName() string {
	return aws.ToString(c.Bucket)
}

func (c *S3Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:        c.Bucket,
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}

	var err error
	if size > multipartLimit {
		u := manager.NewUploader(c.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 5 << 20
		})
		_, err = u.Upload(ctx, in)
	} else {
		_, err = c.C.PutObject(ctx, in)
	}

	if err != nil {
		return apperr.FromAPI(err, fmt.Sprintf("failed to upload '%s'", key))
	}
	return nil
}

func (c *S3Client) PutBytes(ctx context.Context, key string, b []byte, contentType string) error {
	return c.Put(ctx, key, bytes.NewReader(b), int64(len(b)), contentType)
}

func (c *S3Client) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, apperr.FromAPI(err, fmt.Sprintf("failed to read '%s'", key))
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindService, fmt.Sprintf("failed to read body of '%s'", key), err)
	}
	return b, nil
}

// Head checks that the object exists without fetching it. Absence comes
// back as NotFound, anything else as a service error.
func (c *S3Client) Head(ctx context.Context, key string) error {
	_, err := c.C.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.FromAPI(err, fmt.Sprintf("object '%s' not reachable", key))
	}
	return nil
}

func (c *S3Client) Delete(ctx context.Context, key string) error {
	_, err := c.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.FromAPI(err, fmt.Sprintf("failed to delete '%s'", key))
	}
	return nil
}

// PresignGet returns a time-limited read URL. The buckets are private,
// so this is the only way clients ever read blobs directly.
func (c *S3Client) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := c.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", apperr.FromAPI(err, fmt.Sprintf("failed to presign '%s'", key))
	}
	return req.URL, nil
}
