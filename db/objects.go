package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Presigner produces temporary download URLs for frame images and label
// files referenced by the frame tables.
type Presigner interface {
	PresignGetObject(ctx context.Context, s3Path string, expiry time.Duration) (string, error)
}

// Compile-time check
var _ Presigner = (*S3Presigner)(nil)

// S3PresignAPI is the subset of the s3 presign client in use.
type S3PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Presigner struct {
	client S3PresignAPI
}

func NewS3Presigner(client *s3.Client) *S3Presigner {
	return &S3Presigner{client: s3.NewPresignClient(client)}
}

func NewS3PresignerWithClient(client S3PresignAPI) *S3Presigner {
	return &S3Presigner{client: client}
}

// PresignGetObject generates a presigned GET URL for an S3 object.
// s3Path is a full s3:// URI like "s3://bucket/frames/clip_0001/000010.jpg".
func (p *S3Presigner) PresignGetObject(ctx context.Context, s3Path string, expiry time.Duration) (string, error) {
	bucket, key, err := ParseS3Path(s3Path)
	if err != nil {
		return "", err
	}

	result, err := p.client.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", s3Path, err)
	}
	return result.URL, nil
}

// IsS3Path reports whether the value looks like an s3:// URI
func IsS3Path(value string) bool {
	return strings.HasPrefix(value, "s3://")
}

// ParseS3Path splits "s3://bucket/key" into bucket and key.
func ParseS3Path(s3Path string) (string, string, error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("invalid S3 path %q: expected s3:// scheme", s3Path)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 path %q: missing bucket or key", s3Path)
	}
	return u.Host, key, nil
}
