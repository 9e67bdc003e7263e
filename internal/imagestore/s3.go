package imagestore

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	appconfig "textile-store/internal/config"
	"textile-store/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectAPI is the subset of the S3 client used by the store.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Store implements Store on top of an S3 bucket.
type s3Store struct {
	client  objectAPI
	bucket  string
	prefix  string
	baseURL string
	logger  zerolog.Logger
}

// NewS3Store creates a new S3-backed image store.
func NewS3Store(ctx context.Context, cfg appconfig.S3Config, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-image-store").Logger()

	// Load AWS configuration
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Str("prefix", cfg.Prefix).
		Msg("S3 image store initialised")

	return newS3Store(s3.NewFromConfig(awsCfg), cfg, logger), nil
}

func newS3Store(client objectAPI, cfg appconfig.S3Config, logger zerolog.Logger) *s3Store {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &s3Store{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (s *s3Store) Name() string {
	return appconfig.ImageBackendS3
}

// Save uploads the image under the configured prefix.
func (s *s3Store) Save(ctx context.Context, upload model.ImageUpload) (model.Image, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return model.Image{}, fmt.Errorf("failed to generate object key: %w", err)
	}
	key := s.prefix + strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + hex.EncodeToString(suffix) + extensionFor(upload)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(upload.Data),
		ContentType:   aws.String(upload.ContentType),
		ContentLength: aws.Int64(int64(len(upload.Data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return model.Image{}, fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(upload.Data)).Msg("image uploaded")

	return model.Image{
		URL:         s.baseURL + "/" + key,
		ContentType: upload.ContentType,
		Backend:     appconfig.ImageBackendS3,
		Key:         key,
	}, nil
}

// Delete removes the object. Images from other backends are ignored.
func (s *s3Store) Delete(ctx context.Context, image model.Image) error {
	if image.Backend != appconfig.ImageBackendS3 || image.Key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(image.Key),
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", image.Key).
			Msg("failed to delete object from S3")
		return fmt.Errorf("failed to delete object from S3 (bucket=%s, key=%s): %w", s.bucket, image.Key, err)
	}
	return nil
}
