package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	internalConfig "github.com/ldm616/justus-sub000/internal/config"
)

// S3 caps DeleteObjects at 1000 keys per request.
const maxDeleteBatch = 1000

const (
	cacheImmutable = "public, max-age=31536000, immutable"
	cacheMutable   = "public, max-age=300"
)

// R2Storage talks to Cloudflare R2 (or any S3-compatible endpoint).
type R2Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewR2Storage(ctx context.Context, cfg internalConfig.R2Config) (*R2Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.EndpointURL())
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
	}, nil
}

func (s *R2Storage) Put(ctx context.Context, key string, data []byte, opts PutOptions) (string, error) {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(cacheImmutable),
	}
	if opts.Upsert {
		input.CacheControl = aws.String(cacheMutable)
	} else {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return "", fmt.Errorf("%s: %w", key, ErrObjectExists)
		}
		return "", fmt.Errorf("failed to upload %s to R2: %w", key, err)
	}

	return s.PublicURL(key), nil
}

func (s *R2Storage) Delete(ctx context.Context, keys []string) error {
	failed := make(map[string]error)

	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := start + maxDeleteBatch
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		objects := make([]s3types.ObjectIdentifier, 0, len(batch))
		for _, k := range batch {
			objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			for _, k := range batch {
				failed[k] = err
			}
			continue
		}

		for _, e := range out.Errors {
			failed[aws.ToString(e.Key)] = fmt.Errorf("%s: %s", aws.ToString(e.Code), aws.ToString(e.Message))
		}
	}

	if len(failed) > 0 {
		return &PartialDeleteError{Failed: failed}
	}
	return nil
}

func (s *R2Storage) PublicURL(key string) string {
	return joinURL(s.publicURL, key)
}
