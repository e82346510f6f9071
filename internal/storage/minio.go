package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// objectStore - подмножество minio.Client, которое нужно хранилищу
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ImageStore хранит фотографии к алертам в S3-совместимом бакете
type ImageStore struct {
	client    objectStore
	bucket    string
	publicURL string
	maxBytes  int64
	logger    *logrus.Logger
	now       func() time.Time
}

// Options - параметры подключения к MinIO
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
	MaxBytes  int64
}

func NewImageStore(opts Options, logger *logrus.Logger) (*ImageStore, error) {
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: could not create minio client: %w", err)
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}
	return newImageStore(mc, opts.Bucket, publicURL, opts.MaxBytes, logger), nil
}

func newImageStore(client objectStore, bucket, publicURL string, maxBytes int64, logger *logrus.Logger) *ImageStore {
	return &ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxBytes:  maxBytes,
		logger:    logger,
		now:       time.Now,
	}
}

// EnsureBucket создает бакет при первом запуске
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: could not check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: could not create bucket: %w", err)
	}
	s.logger.WithField("bucket", s.bucket).Info("Image bucket created")
	return nil
}

// Upload сохраняет изображение и возвращает его публичный URL.
// Имя объекта генерируется, name исходного файла только логируется.
func (s *ImageStore) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, s.maxBytes)
	}

	object := BuildObjectPath(s.now(), uuid.NewString()+ext)
	log := s.logger.WithFields(logrus.Fields{
		"component": "storage",
		"bucket":    s.bucket,
		"object":    object,
		"name":      name,
		"size":      size,
	})

	if _, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		log.WithError(err).Error("Failed to upload image")
		return "", fmt.Errorf("storage: could not upload image: %w", err)
	}

	log.Info("Image uploaded")
	return s.publicURL + "/" + object, nil
}

// BuildObjectPath раскладывает объекты по датам: alerts/yyyy/mm/dd/<file>
func BuildObjectPath(t time.Time, file string) string {
	t = t.UTC()
	return path.Join("alerts", fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())), fmt.Sprintf("%02d", t.Day()), file)
}
