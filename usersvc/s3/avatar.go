// Package s3 stores user avatars as objects in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/ichigozero/taskapi/usersvc"
)

// Client is the subset of the S3 API used by the avatar repository.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	Region       string `env:"REGION" envDefault:"us-east-1"`
	Bucket       string `env:"BUCKET"`
	BaseEndpoint string `env:"ENDPOINT"`
	AccessKey    string `env:"ACCESS_KEY_ID"`
	SecretKey    string `env:"SECRET_ACCESS_KEY"`
}

// NewClient builds an S3 client. Static credentials are used when an access
// key is configured, otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, c Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type avatarRepository struct {
	client Client
	bucket string
}

func NewAvatarRepository(client Client, bucket string) usersvc.AvatarRepository {
	return &avatarRepository{client: client, bucket: bucket}
}

func (a *avatarRepository) Put(ctx context.Context, userID uint64, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key(userID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	return err
}

func (a *avatarRepository) Get(ctx context.Context, userID uint64) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key(userID)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, usersvc.ErrAvatarNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (a *avatarRepository) Delete(ctx context.Context, userID uint64) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key(userID)),
	})
	return err
}

// isNotFound also accepts the bare NoSuchKey code some S3-compatible stores
// return instead of the typed error.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}

func key(userID uint64) string {
	return fmt.Sprintf("avatars/%d.png", userID)
}
