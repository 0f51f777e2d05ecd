package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bowerhall/dossier/internal/logger"
)

// Minio stores objects in a single S3-compatible bucket.
type Minio struct {
	mc     *minio.Client
	bucket string
}

// MinioConfig holds connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinio creates a new object storage client.
func NewMinio(cfg MinioConfig) (*Minio, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Minio{mc: mc, bucket: cfg.Bucket}, nil
}

// Init creates the bucket if it does not exist.
func (m *Minio) Init(ctx context.Context) error {
	exists, err := m.mc.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if !exists {
		if err := m.mc.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", m.bucket, err)
		}
		logger.Info("bucket created", "bucket", m.bucket)
	}
	return nil
}

func (m *Minio) Save(ctx context.Context, ref string, data []byte) error {
	contentType := http.DetectContentType(data)

	_, err := m.mc.PutObject(ctx, m.bucket, ref, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", ref, err)
	}

	logger.Debug("file uploaded", "ref", ref, "size", len(data))
	return nil
}

func (m *Minio) Load(ctx context.Context, ref string) ([]byte, error) {
	obj, err := m.mc.GetObject(ctx, m.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return data, nil
}

func (m *Minio) Delete(ctx context.Context, ref string) error {
	if err := m.mc.RemoveObject(ctx, m.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}

func (m *Minio) DeletePrefix(ctx context.Context, prefix string) error {
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range m.mc.ListObjects(ctx, m.bucket, opts) {
		if obj.Err != nil {
			return fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		if err := m.mc.RemoveObject(ctx, m.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete %s: %w", obj.Key, err)
		}
	}

	logger.Debug("prefix deleted", "prefix", prefix)
	return nil
}

func (m *Minio) List(ctx context.Context, prefix string) ([]string, error) {
	var refs []string

	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range m.mc.ListObjects(ctx, m.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		refs = append(refs, obj.Key)
	}
	return refs, nil
}
