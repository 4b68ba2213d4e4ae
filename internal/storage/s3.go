package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3 connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
}

// FileStore is the store-and-get-URL capability used for attachments.
type FileStore interface {
	Store(ctx context.Context, fileName string, contentType string, data []byte) (StoredFile, error)
}

// StoredFile describes a persisted attachment blob.
type StoredFile struct {
	Key string
	URL string
}

// S3Store is a minio-backed FileStore.
type S3Store struct {
	cfg    Config
	client *minio.Client
}

// New connects to the S3 endpoint and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*S3Store, error) {
	cl, err := minio.New(strings.TrimPrefix(cfg.Endpoint, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	s := &S3Store{cfg: cfg, client: cl}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Store uploads the blob under a random key and returns its public URL.
func (s *S3Store) Store(ctx context.Context, fileName string, contentType string, data []byte) (StoredFile, error) {
	key := uuid.NewString() + path.Ext(fileName)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return StoredFile{}, err
	}
	return StoredFile{
		Key: key,
		URL: fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.PublicURL, "/"), s.cfg.Bucket, key),
	}, nil
}
