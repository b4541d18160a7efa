package queue

import (
	"context"

	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
)

// MetaReporter stores finished ids in the item's image list. New ids are appended after
// the stored ones; ids already present are skipped.
type MetaReporter struct {
	meta host.MetaStore
}

// NewMetaReporter creates a MetaReporter.
func NewMetaReporter(meta host.MetaStore) *MetaReporter {
	return &MetaReporter{meta: meta}
}

var _ Reporter = (*MetaReporter)(nil)

func (r *MetaReporter) Complete(ctx context.Context, itemID uint, ids []uint) error {
	stored, _, err := r.meta.GetMeta(ctx, itemID, metadata.MetaImages)
	if err != nil {
		return err
	}
	merged := metadata.DecodeImageIDs(stored)
	seen := make(map[uint]bool, len(merged)+len(ids))
	for _, id := range merged {
		seen[id] = true
	}
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
	}
	return r.meta.UpdateMeta(ctx, itemID, metadata.MetaImages, metadata.EncodeImageIDs(merged))
}
