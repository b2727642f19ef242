package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/joseph-ayodele/submission-intake/internal/common"
)

const s3Scheme = "s3://"

// objectGetter is the slice of the S3 API the loader uses; tests stub it.
type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Loader reads s3://bucket/key sources.
type S3Loader struct {
	api objectGetter
	log *slog.Logger
}

// NewS3Loader builds an S3 client from the default AWS chain. Static keys and a custom
// endpoint (path-style, for MinIO-compatible stores) are applied when configured.
func NewS3Loader(ctx context.Context, cfg common.S3Config, logger *slog.Logger) (*S3Loader, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Loader(client, logger), nil
}

func newS3Loader(api objectGetter, logger *slog.Logger) *S3Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Loader{api: api, log: logger}
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%s: not an s3 uri", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", common.NewAppError("INGEST", fmt.Sprintf("%s: expected s3://bucket/key", uri), common.ErrInvalidInput)
	}
	return bucket, key, nil
}

func (l *S3Loader) Load(ctx context.Context, uri string) (Source, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return Source{}, err
	}
	if !AllowedExt(path.Ext(key)) {
		return Source{}, common.NewAppError("INGEST", fmt.Sprintf("%s: unsupported or missing extension", uri), common.ErrInvalidInput)
	}

	res, err := l.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return Source{}, common.NewAppError("INGEST", fmt.Sprintf("%s: object not found", uri), common.ErrNotFound)
		}
		l.log.Error("ingest.s3.get_failed", "bucket", bucket, "key", key, "error", err)
		return Source{}, fmt.Errorf("failed to get %s: %w", uri, err)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(res.Body, MaxSourceBytes+1))
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", uri, err)
	}
	if len(data) > MaxSourceBytes {
		return Source{}, common.NewAppError("INGEST", fmt.Sprintf("%s: object exceeds %d bytes", uri, MaxSourceBytes), common.ErrInvalidInput)
	}

	src, err := newSource(uri, path.Base(key), data)
	if err != nil {
		return Source{}, err
	}
	l.log.Info("ingest.s3.loaded", "bucket", bucket, "key", key, "bytes", len(data), "sha256", src.HashHex)
	return src, nil
}
