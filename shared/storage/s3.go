// Package storage keeps uploaded user files on S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/changzer/choppy/shared/exception"
	"github.com/google/uuid"
)

// AvatarStore saves avatar images and hands out temporary read links.
type AvatarStore interface {
	PutAvatar(ctx context.Context, fileName, contentType string, size int64, body io.Reader) (string, error)
	AvatarURL(ctx context.Context, key string) (string, error)
}

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PresignTTL bounds the lifetime of links returned by AvatarURL.
	PresignTTL time.Duration
}

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct {
	objects objectAPI
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	now     func() time.Time
	newID   func() string
}

func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := opts.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Store{
		objects: client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		ttl:     ttl,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// ObjectKey names an avatar object as avatars/<yyyy/mm/dd>/<uuid><ext>.
func (s *S3Store) ObjectKey(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return path.Join("avatars", s.now().UTC().Format("2006/01/02"), s.newID()+ext)
}

func (s *S3Store) PutAvatar(ctx context.Context, fileName, contentType string, size int64, body io.Reader) (string, error) {
	key := s.ObjectKey(fileName)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.objects.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put avatar %s: %w", key, err)
	}
	return key, nil
}

func (s *S3Store) AvatarURL(ctx context.Context, key string) (string, error) {
	if s.presign == nil {
		return "", exception.ErrIllegalState
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign avatar %s: %w", key, err)
	}
	return req.URL, nil
}

// Unconfigured is used when no object storage is set up; every call fails
// with ErrIllegalState.
type Unconfigured struct{}

func (Unconfigured) PutAvatar(context.Context, string, string, int64, io.Reader) (string, error) {
	return "", fmt.Errorf("avatar storage is not configured: %w", exception.ErrIllegalState)
}

func (Unconfigured) AvatarURL(context.Context, string) (string, error) {
	return "", fmt.Errorf("avatar storage is not configured: %w", exception.ErrIllegalState)
}
