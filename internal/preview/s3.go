package preview

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vidfriends/feedclient/internal/config"
)

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store puts previews into an S3-compatible bucket and deletes them on
// release.
type S3Store struct {
	uploader objectUploader
	deleter  objectDeleter
	bucket   string
	baseURL  string
	prefix   string
	limit    int64
}

// NewS3Store configures a client for the object store in cfg.
func NewS3Store(ctx context.Context, cfg config.ObjectStoreConfig, limit int64) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 preview store: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3Store(uploader, client, cfg.Bucket, cfg.PublicBaseURL, limit), nil
}

func newS3Store(up objectUploader, del objectDeleter, bucket, baseURL string, limit int64) *S3Store {
	return &S3Store{
		uploader: up,
		deleter:  del,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		prefix:   "previews",
		limit:    limit,
	}
}

// Create implements Store.
func (s *S3Store) Create(ctx context.Context, name, contentType string, r io.Reader) (*Preview, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	key := path.Join(s.prefix, uuid.NewString()+path.Ext(name))

	body := r
	if s.limit > 0 {
		body = io.LimitReader(r, s.limit)
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 preview upload %s: %w", key, err)
	}

	location := key
	if s.baseURL != "" {
		location = fmt.Sprintf("%s/%s", s.baseURL, key)
	}

	bucket := s.bucket
	return New(location, func() error {
		_, err := s.deleter.DeleteObject(context.WithoutCancel(ctx), &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("s3 preview delete %s: %w", key, err)
		}
		return nil
	}), nil
}
