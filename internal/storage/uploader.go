package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/digkill/PhotoStudio/internal/config"
)

const defaultPrefix = "studio"

type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
	Prefix        string
}

// ConfigFrom copies the S3 settings out of the application config.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicBaseURL,
		UsePathStyle:  cfg.S3UsePathStyle,
		Prefix:        cfg.S3Prefix,
	}
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes public objects used as model inputs and payment method logos.
type Uploader struct {
	cfg    Config
	client objectPutter
	now    func() time.Time
}

func NewUploader(cfg Config) (*Uploader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return newUploader(cfg, s3.New(options)), nil
}

func newUploader(cfg Config, client objectPutter) *Uploader {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	return &Uploader{cfg: cfg, client: client, now: time.Now}
}

func (c Config) validate() error {
	switch {
	case c.Bucket == "":
		return fmt.Errorf("s3 bucket is required")
	case c.Region == "":
		return fmt.Errorf("s3 region is required")
	case c.AccessKey == "" || c.SecretKey == "":
		return fmt.Errorf("s3 credentials are required")
	case c.PublicBaseURL == "":
		return fmt.Errorf("s3 public base url is required")
	}
	return nil
}

// Upload stores data under a dated random key and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no data to upload")
	}
	if contentType == "" {
		contentType = "image/png"
	}

	key := u.generateKey(contentType)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + key, nil
}

func (u *Uploader) generateKey(contentType string) string {
	now := u.now().UTC()
	prefix := strings.Trim(u.cfg.Prefix, "/")
	return path.Join(prefix, now.Format("2006/01/02"), uuid.NewString()+extensionFromContentType(contentType))
}

func extensionFromContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
