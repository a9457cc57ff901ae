package binary

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gregjan/trellis/internal/apperr"
	"github.com/gregjan/trellis/rdf"
)

// s3Client narrows *s3.Client to the three calls S3Content needs, grounded
// on the pack's S3Client dependency-injection interface
// (storage/s3_interface.go): tests construct an S3Content against a fake
// implementing this interface instead of a live bucket.
type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Content is a Content backed by an S3-compatible bucket. A binary
// Location IRI maps to an object key by stripping any URL scheme/authority
// prefix the caller's locationPrefix supplies, so a Location like
// "https://example.org/binaries/<id>" with locationPrefix
// "https://example.org/binaries/" stores at key "<id>".
type S3Content struct {
	client         s3Client
	bucket         string
	locationPrefix string
}

// NewS3Content builds an S3-backed Content. client is typically
// s3.NewFromConfig against an AWS config (or a LocalStack/MinIO endpoint
// override), matching store/external's aws-sdk-go-v2 wiring style.
func NewS3Content(client s3Client, bucket, locationPrefix string) *S3Content {
	return &S3Content{client: client, bucket: bucket, locationPrefix: locationPrefix}
}

func (c *S3Content) objectKey(location rdf.IRI) string {
	s := string(location)
	if len(s) > len(c.locationPrefix) && s[:len(c.locationPrefix)] == c.locationPrefix {
		return s[len(c.locationPrefix):]
	}
	return s
}

func (c *S3Content) Put(ctx context.Context, location rdf.IRI, r io.Reader, size int64) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(c.objectKey(location)),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return apperr.NewBackendFailure("putting binary content to s3", err)
	}
	return nil
}

func (c *S3Content) Get(ctx context.Context, location rdf.IRI) (io.ReadCloser, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(location)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, apperr.NewNotFound("no binary content stored at " + string(location))
		}
		return nil, apperr.NewBackendFailure("getting binary content from s3", err)
	}
	return out.Body, nil
}

func (c *S3Content) Delete(ctx context.Context, location rdf.IRI) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(location)),
	})
	if err != nil {
		return apperr.NewBackendFailure("deleting binary content from s3", err)
	}
	return nil
}

var _ Content = (*S3Content)(nil)
