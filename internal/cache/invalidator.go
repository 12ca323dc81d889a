package cache

import (
	"context"

	"go.uber.org/zap"
)

// Deleter removes cache keys.
type Deleter interface {
	Delete(ctx context.Context, keys ...string) error
}

// FailureRecorder counts keys that could not be invalidated.
type FailureRecorder interface {
	InvalidationFailed(keys int)
}

// Invalidator removes stale read views after a committed mutation.
// It never reports failure to the caller: the database stays authoritative
// and a stale entry expires with its TTL.
type Invalidator struct {
	store    Deleter
	log      *zap.Logger
	recorder FailureRecorder
}

// NewInvalidator creates an invalidator. recorder may be nil.
func NewInvalidator(store Deleter, log *zap.Logger, recorder FailureRecorder) *Invalidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invalidator{store: store, log: log, recorder: recorder}
}

// Invalidate deletes keys, logging any failure.
func (i *Invalidator) Invalidate(ctx context.Context, keys ...string) {
	if i == nil || i.store == nil || len(keys) == 0 {
		return
	}
	if err := i.store.Delete(ctx, keys...); err != nil {
		i.log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
		if i.recorder != nil {
			i.recorder.InvalidationFailed(len(keys))
		}
	}
}

// InvalidateCollection drops the collection view and its bid list.
func (i *Invalidator) InvalidateCollection(ctx context.Context, collectionID uint) {
	i.Invalidate(ctx, CollectionKey(collectionID), CollectionBidsKey(collectionID))
}

// InvalidateBids drops the views touched by bid mutations on one collection
// for the given bidders.
func (i *Invalidator) InvalidateBids(ctx context.Context, collectionID uint, userIDs ...uint) {
	keys := []string{CollectionKey(collectionID), CollectionBidsKey(collectionID)}
	seen := make(map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, UserBidsKey(id))
	}
	i.Invalidate(ctx, keys...)
}
