// Package minio implements the asset store on any S3-compatible object store via minio-go.
package minio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
)

var _ core.AssetStore = (*AssetStore)(nil)

// Config holds connection settings for the S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL overrides the "{endpoint}/{bucket}" prefix of returned URLs.
	PublicBaseURL string
	Logger        *slog.Logger
}

// AssetStore stores driver images in a bucket.
type AssetStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *slog.Logger
}

// NewAssetStore connects to the endpoint and makes sure the bucket exists.
func NewAssetStore(ctx context.Context, cfg Config) (*AssetStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", cfg.Endpoint, err)
	}

	if err := ensureBucket(ctx, client, cfg.Bucket); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "minio asset store ready", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)

	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = client.EndpointURL().String() + "/" + cfg.Bucket
	}
	return &AssetStore{client: client, bucket: cfg.Bucket, baseURL: base, logger: logger}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *AssetStore) Put(ctx context.Context, params core.PutAssetParams) (model.Asset, error) {
	size := params.Size
	if size <= 0 {
		size = -1
	}
	info, err := s.client.PutObject(ctx, s.bucket, params.Path, params.Body, size, minio.PutObjectOptions{
		ContentType: params.ContentType,
	})
	if err != nil {
		return model.Asset{}, fmt.Errorf("put object %s: %w", params.Path, err)
	}
	s.logger.DebugContext(ctx, "asset uploaded", "bucket", info.Bucket, "key", info.Key, "size", info.Size)
	return model.Asset{Path: params.Path, URL: s.baseURL + "/" + params.Path}, nil
}

func (s *AssetStore) Delete(ctx context.Context, path string) error {
	// RemoveObject succeeds for missing keys.
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", path, err)
	}
	return nil
}
