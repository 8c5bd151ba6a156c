package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hmans/larder/internal/config"
)

// S3 stores assets in an S3 bucket (or any S3-compatible endpoint).
type S3 struct {
	client  *s3.Client
	bucket  string
	prefix  string
	dir     string
	baseURL string
}

// NewS3 creates an S3 storage using the default AWS credential chain.
func NewS3(ctx context.Context, sc config.Storage) (*S3, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if sc.Region != "" {
		opts = append(opts, awsconfig.WithRegion(sc.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
		}
		o.UsePathStyle = sc.PathStyle
	})

	return NewS3WithClient(client, sc), nil
}

// NewS3WithClient creates an S3 storage around an existing client.
func NewS3WithClient(client *s3.Client, sc config.Storage) *S3 {
	baseURL := sc.BaseURL
	if baseURL == "" {
		switch {
		case sc.Endpoint != "":
			baseURL = joinURL(sc.Endpoint, sc.Bucket)
		case sc.Region != "":
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", sc.Bucket, sc.Region)
		default:
			baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", sc.Bucket)
		}
	}

	return &S3{
		client:  client,
		bucket:  sc.Bucket,
		prefix:  sc.Prefix,
		dir:     sc.Dir,
		baseURL: baseURL,
	}
}

// Save uploads content under a unique key. Existence checks are not possible
// without a round trip, so keys always carry a random suffix.
func (s *S3) Save(ctx context.Context, name string, content io.Reader, contentType string) (string, error) {
	filename, err := withSuffix(ValidName(name))
	if err != nil {
		return "", err
	}
	key := path.Join(s.prefix, s.dir, filename)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   content,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("uploading %s to s3: %w", key, err)
	}
	return key, nil
}

// Open downloads the object stored under key.
func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("downloading %s from s3: %w", key, err)
	}
	return out.Body, nil
}

// Delete removes the object stored under key.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %s from s3: %w", key, err)
	}
	return nil
}

// URL returns the public URL for key.
func (s *S3) URL(key string) string {
	return joinURL(s.baseURL, key)
}
