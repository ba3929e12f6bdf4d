package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"surf-market/internal/imagestore"
)

const compressWorkers = 4

// storeImages compresses and saves uploads concurrently. Ids come back in upload order.
// If any upload fails, the ones already stored are deleted again.
func storeImages(ctx context.Context, store ImageStore, logger *zap.Logger, prefix string, uploads []Upload) ([]string, error) {
	ids := make([]string, len(uploads))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(compressWorkers)
	for i, up := range uploads {
		i, up := i, up
		eg.Go(func() error {
			data, err := imagestore.Compress(up.Reader)
			if err != nil {
				return fmt.Errorf("%s: %w", up.Filename, err)
			}
			id, err := store.Put(egCtx, fmt.Sprintf("%s_%d.jpg", prefix, i), imagestore.ContentType, data)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		for _, id := range ids {
			if id != "" {
				deleteImage(context.Background(), store, logger, id)
			}
		}
		return nil, err
	}
	return ids, nil
}

// deleteImage is best-effort; a dangling blob is only logged.
func deleteImage(ctx context.Context, store ImageStore, logger *zap.Logger, id string) {
	if err := store.Delete(ctx, id); err != nil {
		logger.Warn("failed to delete image", zap.String("image_id", id), zap.Error(err))
	}
}
