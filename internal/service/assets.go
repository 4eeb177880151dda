package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
)

// Upload is one image file received from a client.
type Upload struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

// Present reports whether the upload carries content.
func (u Upload) Present() bool { return u.Body != nil && u.Size != 0 }

func validateImage(field string, u Upload) error {
	if !u.Present() {
		return apperrors.ValidationField(field, model.MsgImageRequired)
	}
	if !strings.HasPrefix(strings.ToLower(u.ContentType), "image/") {
		return apperrors.ValidationField(field, model.MsgInvalidImageFile)
	}
	return nil
}

type pendingUpload struct {
	path   string
	upload Upload
}

// uploadAll stores every pending upload concurrently. It returns the assets in
// input order, plus the paths that were written even when an error occurred.
func uploadAll(ctx context.Context, store core.AssetStore, pending []pendingUpload) ([]model.Asset, []string, error) {
	assets := make([]model.Asset, len(pending))
	var (
		mu      sync.Mutex
		written []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pending {
		g.Go(func() error {
			a, err := store.Put(gctx, core.PutAssetParams{
				Path:        p.path,
				ContentType: p.upload.ContentType,
				Body:        p.upload.Body,
				Size:        p.upload.Size,
			})
			if err != nil {
				return fmt.Errorf("upload %s: %w", p.path, err)
			}
			assets[i] = a
			mu.Lock()
			written = append(written, p.path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, written, err
	}
	return assets, written, nil
}

// purgeAssets attempts every path independently and concurrently. Failures are
// recorded as orphans and never returned.
func purgeAssets(ctx context.Context, store core.AssetStore, fx Effects, owner, operation string, paths []string) {
	var g errgroup.Group
	for _, p := range paths {
		if p == "" || p == model.NoImage {
			continue
		}
		g.Go(func() error {
			if err := store.Delete(ctx, p); err != nil {
				fx.orphans().Assets(ctx, owner, operation, []string{p}, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
