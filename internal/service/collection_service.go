package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"opensails/internal/cache"
	apperrors "opensails/internal/errors"
	"opensails/internal/model"
	"opensails/internal/repository"
)

// CreateCollectionInput carries the fields of a new collection.
type CreateCollectionInput struct {
	Name         string
	Descriptions *string
	Price        decimal.Decimal
	Stocks       int
}

// CollectionService exposes collection operations.
type CollectionService interface {
	ListCollections(ctx context.Context) ([]model.Collection, error)
	ListCollectionsByOwner(ctx context.Context, ownerID uint) ([]model.Collection, error)
	ListCollectionsWithOwner(ctx context.Context) ([]model.CollectionWithOwner, error)
	ListCollectionsByOwnerWithOwner(ctx context.Context, ownerID uint) ([]model.CollectionWithOwner, error)
	GetCollection(ctx context.Context, id uint) (*model.Collection, error)
	CreateCollection(ctx context.Context, actor Actor, input CreateCollectionInput) (*model.Collection, error)
	UpdateCollection(ctx context.Context, actor Actor, id uint, update model.CollectionUpdate) (*model.Collection, error)
	DeleteCollection(ctx context.Context, actor Actor, id uint) error
}

type collectionService struct {
	collections repository.CollectionRepository
	bids        repository.BidRepository
	caching     Caching
}

// NewCollectionService builds a CollectionService.
func NewCollectionService(collections repository.CollectionRepository, bids repository.BidRepository, caching Caching) CollectionService {
	return &collectionService{collections: collections, bids: bids, caching: caching}
}

func (s *collectionService) ListCollections(ctx context.Context) ([]model.Collection, error) {
	return s.collections.FindAll(ctx)
}

func (s *collectionService) ListCollectionsByOwner(ctx context.Context, ownerID uint) ([]model.Collection, error) {
	return s.collections.FindByOwnerID(ctx, ownerID)
}

func (s *collectionService) ListCollectionsWithOwner(ctx context.Context) ([]model.CollectionWithOwner, error) {
	return s.collections.FindAllWithOwner(ctx)
}

func (s *collectionService) ListCollectionsByOwnerWithOwner(ctx context.Context, ownerID uint) ([]model.CollectionWithOwner, error) {
	return s.collections.FindByOwnerIDWithOwner(ctx, ownerID)
}

func (s *collectionService) GetCollection(ctx context.Context, id uint) (*model.Collection, error) {
	return readThrough(ctx, s.caching, cache.CollectionKey(id), func() (*model.Collection, error) {
		return s.collections.FindByID(ctx, id)
	})
}

// CreateCollection lists a new open collection owned by the actor.
func (s *collectionService) CreateCollection(ctx context.Context, actor Actor, input CreateCollectionInput) (*model.Collection, error) {
	if actor.UserID == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	collection := &model.Collection{
		Name:         input.Name,
		Descriptions: input.Descriptions,
		Price:        input.Price,
		Stocks:       input.Stocks,
		OwnerID:      actor.UserID,
	}
	if err := s.collections.Create(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// UpdateCollection applies update while the collection is open. Closing a
// collection by hand rejects its pending bids in the same transaction, so a
// closed collection never carries a pending bid.
func (s *collectionService) UpdateCollection(ctx context.Context, actor Actor, id uint, update model.CollectionUpdate) (*model.Collection, error) {
	var (
		updated  *model.Collection
		rejected []model.Bid
	)
	err := s.bids.WithTransaction(ctx, func(ctx context.Context, bids repository.BidRepository, collections repository.CollectionRepository) error {
		current, err := collections.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(current.OwnerID) {
			return apperrors.ErrForbidden
		}
		if !current.IsOpen() {
			return fmt.Errorf("update collection %d: %w", id, apperrors.ErrCollectionClosed)
		}

		updated, err = collections.Update(ctx, id, update)
		if err != nil {
			return err
		}
		if !updated.IsOpen() {
			rejected, err = bids.RejectPending(ctx, id, 0)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.caching.Invalidator.InvalidateBids(ctx, id, bidderIDs(rejected)...)
	return updated, nil
}

// DeleteCollection removes an open collection and, through the foreign key,
// its bids.
func (s *collectionService) DeleteCollection(ctx context.Context, actor Actor, id uint) error {
	var removed []model.Bid
	err := s.bids.WithTransaction(ctx, func(ctx context.Context, bids repository.BidRepository, collections repository.CollectionRepository) error {
		current, err := collections.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(current.OwnerID) {
			return apperrors.ErrForbidden
		}
		if !current.IsOpen() {
			return fmt.Errorf("delete collection %d: %w", id, apperrors.ErrCollectionClosed)
		}
		if removed, err = bids.FindByCollectionID(ctx, id); err != nil {
			return err
		}
		return collections.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.caching.Invalidator.InvalidateBids(ctx, id, bidderIDs(removed)...)
	return nil
}

func bidderIDs(bids []model.Bid) []uint {
	ids := make([]uint, 0, len(bids))
	for _, b := range bids {
		ids = append(ids, b.UserID)
	}
	return ids
}
