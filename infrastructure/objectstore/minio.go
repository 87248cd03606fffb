package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"audiocut/domain/distribution"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPrefix is the key prefix cuts are stored under
const DefaultPrefix = "cuts/"

// shareExpiry is the lifetime of presigned download links (the S3 maximum)
const shareExpiry = 7 * 24 * time.Hour

// ObjectAPI is the subset of *minio.Client used for uploads
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Config holds the connection settings for an S3-compatible store
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Uploader implements distribution.Uploader against MinIO or any S3-compatible store
type Uploader struct {
	api    ObjectAPI
	bucket string
	region string
	prefix string
}

// UploaderOption configures an Uploader
type UploaderOption func(*Uploader)

// WithObjectAPI sets a custom object API (for testing)
func WithObjectAPI(api ObjectAPI) UploaderOption {
	return func(u *Uploader) {
		u.api = api
	}
}

// WithPrefix sets the key prefix
func WithPrefix(prefix string) UploaderOption {
	return func(u *Uploader) {
		u.prefix = prefix
	}
}

// NewUploader creates an Uploader, connecting to cfg.Endpoint unless an API is injected
func NewUploader(cfg Config, opts ...UploaderOption) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio.bucket is empty", distribution.ErrNotConfigured)
	}

	u := &Uploader{
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(u)
	}

	if u.api == nil {
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("%w: minio.endpoint is empty", distribution.ErrNotConfigured)
		}
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
		u.api = client
	}

	return u, nil
}

// Upload implements distribution.Uploader
func (u *Uploader) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return nil, err
	}

	key := path.Join(u.prefix, req.FileName)
	info, err := u.api.FPutObject(ctx, u.bucket, key, req.LocalPath, minio.PutObjectOptions{
		ContentType: req.MimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", req.FileName, err)
	}

	result := &distribution.UploadResult{
		Target:   distribution.TargetMinio,
		FileID:   key,
		FileName: req.FileName,
		Location: u.bucket + "/" + key,
		Size:     info.Size,
	}

	// a missing link does not undo a finished upload
	if link, err := u.api.PresignedGetObject(ctx, u.bucket, key, shareExpiry, nil); err == nil {
		result.ShareableURL = link.String()
	}

	return result, nil
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	exists, err := u.api.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	if err := u.api.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", u.bucket, err)
	}
	return nil
}

// Ensure Uploader implements distribution.Uploader
var _ distribution.Uploader = (*Uploader)(nil)
