// Package gcs implements the asset store on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
)

var _ core.AssetStore = (*AssetStore)(nil)

// AssetStore writes objects into a single bucket.
type AssetStore struct {
	bucket  *storage.BucketHandle
	baseURL string
}

// NewAssetStore returns an AssetStore on bucket. Object URLs are
// publicBaseURL + "/" + path, defaulting to the storage.googleapis.com URL.
func NewAssetStore(client *storage.Client, bucket, publicBaseURL string) (*AssetStore, error) {
	if client == nil || bucket == "" {
		return nil, errors.New("gcs client and bucket are required")
	}
	base := strings.TrimSuffix(publicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + bucket
	}
	return &AssetStore{bucket: client.Bucket(bucket), baseURL: base}, nil
}

func (s *AssetStore) Put(ctx context.Context, params core.PutAssetParams) (model.Asset, error) {
	w := s.bucket.Object(params.Path).NewWriter(ctx)
	w.ContentType = params.ContentType
	w.CacheControl = "public, max-age=3600"
	if _, err := io.Copy(w, params.Body); err != nil {
		_ = w.Close()
		return model.Asset{}, fmt.Errorf("write object %s: %w", params.Path, err)
	}
	if err := w.Close(); err != nil {
		return model.Asset{}, fmt.Errorf("close object writer %s: %w", params.Path, err)
	}
	return model.Asset{Path: params.Path, URL: s.baseURL + "/" + params.Path}, nil
}

func (s *AssetStore) Delete(ctx context.Context, path string) error {
	err := s.bucket.Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}
