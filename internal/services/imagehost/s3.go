package imagehost

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// S3Config bucket settings. Endpoint targets S3 compatible stores; PublicURL
// overrides the link returned by the upload.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
	Prefix    string
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3 stores graphs in a bucket under a timestamped key.
type S3 struct {
	cfg      S3Config
	uploader objectUploader
	now      func() time.Time
}

// NewS3 uses static credentials when given, the default AWS chain otherwise.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{cfg: cfg, uploader: manager.NewUploader(client), now: time.Now}, nil
}

func (s *S3) Upload(ctx context.Context, path string, meta Metadata) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open image")
	}
	defer f.Close()

	key := s.objectKey(path)
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("image/png"),
		Metadata: map[string]string{
			"title":       meta.Title,
			"description": meta.Description,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "upload to s3")
	}

	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key, nil
	}
	return out.Location, nil
}

func (s *S3) objectKey(path string) string {
	name := fmt.Sprintf("%d-%s", s.now().Unix(), filepath.Base(path))
	if s.cfg.Prefix == "" {
		return name
	}
	return strings.Trim(s.cfg.Prefix, "/") + "/" + name
}
