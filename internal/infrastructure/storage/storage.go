// Package storage turns generated recipe images into URLs the UI can display.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/infrastructure/config"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/datauri"
)

// DataURIStore inlines images as data URIs. It needs no external service and
// is the default.
type DataURIStore struct{}

var _ outbound.ImageStore = DataURIStore{}

// Store encodes img as a data URI; key is ignored.
func (DataURIStore) Store(_ context.Context, _ string, img outbound.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("storage: empty image")
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return datauri.Encode(mime, img.Data), nil
}

// S3Store uploads images to an S3-compatible bucket.
type S3Store struct {
	uploader      s3manageriface.UploaderAPI
	bucket        string
	prefix        string
	publicBaseURL string
	logger        *zap.Logger
}

var _ outbound.ImageStore = (*S3Store)(nil)

// NewS3Store creates an uploader from storage configuration. Static
// credentials are used when both keys are set, otherwise the default AWS chain.
func NewS3Store(cfg config.StorageConfig, logger *zap.Logger) (*S3Store, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.S3Region)}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create AWS session: %w", err)
	}

	return newS3Store(s3manager.NewUploader(sess), cfg, logger), nil
}

func newS3Store(uploader s3manageriface.UploaderAPI, cfg config.StorageConfig, logger *zap.Logger) *S3Store {
	return &S3Store{
		uploader:      uploader,
		bucket:        cfg.S3Bucket,
		prefix:        cfg.S3Prefix,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger.Named("s3-store"),
	}
}

// Store uploads img under prefix/key.ext and returns its public URL.
func (s *S3Store) Store(ctx context.Context, key string, img outbound.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("storage: empty image")
	}

	objectKey := path.Join(s.prefix, key+extension(img.MIMEType))

	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(objectKey),
		Body:         bytes.NewReader(img.Data),
		ContentType:  aws.String(img.MIMEType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		s.logger.Error("Image upload failed", zap.String("key", objectKey), zap.Error(err))
		return "", fmt.Errorf("storage: upload %s: %w", objectKey, err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + objectKey, nil
	}
	return out.Location, nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

// New picks the store named by configuration.
func New(cfg config.StorageConfig, logger *zap.Logger) (outbound.ImageStore, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Store(cfg, logger)
	default:
		return DataURIStore{}, nil
	}
}
