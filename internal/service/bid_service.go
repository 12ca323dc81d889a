package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"opensails/internal/cache"
	apperrors "opensails/internal/errors"
	"opensails/internal/metrics"
	"opensails/internal/model"
	"opensails/internal/repository"
)

// PlaceBidInput carries the fields of a new bid. A zero UserID means the actor.
type PlaceBidInput struct {
	CollectionID uint
	UserID       uint
	Price        decimal.Decimal
}

// UpdateBidInput carries a partial bid update. At least one field is set.
type UpdateBidInput struct {
	Status *model.BidStatus
	Price  *decimal.Decimal
}

// BidService exposes bid operations, including the acceptance transaction.
type BidService interface {
	ListBids(ctx context.Context) ([]model.Bid, error)
	ListByCollection(ctx context.Context, collectionID uint) ([]model.Bid, error)
	ListByCollectionWithDetails(ctx context.Context, collectionID uint) ([]model.BidWithDetails, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Bid, error)
	GetBid(ctx context.Context, id uint) (*model.Bid, error)
	PlaceBid(ctx context.Context, actor Actor, input PlaceBidInput) (*model.Bid, error)
	UpdateBid(ctx context.Context, actor Actor, bidID, collectionID uint, input UpdateBidInput) ([]model.Bid, error)
	AcceptBid(ctx context.Context, actor Actor, bidID, collectionID uint) ([]model.Bid, error)
	DeleteBid(ctx context.Context, actor Actor, bidID uint) error
}

type bidService struct {
	bids        repository.BidRepository
	collections repository.CollectionRepository
	users       repository.UserRepository
	caching     Caching
	metrics     *metrics.Tracker
	log         *zap.Logger
}

// NewBidService builds a BidService. tracker and log may be nil.
func NewBidService(
	bids repository.BidRepository,
	collections repository.CollectionRepository,
	users repository.UserRepository,
	caching Caching,
	tracker *metrics.Tracker,
	log *zap.Logger,
) BidService {
	if log == nil {
		log = zap.NewNop()
	}
	return &bidService{
		bids:        bids,
		collections: collections,
		users:       users,
		caching:     caching,
		metrics:     tracker,
		log:         log,
	}
}

func (s *bidService) ListBids(ctx context.Context) ([]model.Bid, error) {
	return s.bids.FindAll(ctx)
}

func (s *bidService) ListByCollection(ctx context.Context, collectionID uint) ([]model.Bid, error) {
	return readThrough(ctx, s.caching, cache.CollectionBidsKey(collectionID), func() ([]model.Bid, error) {
		if _, err := s.collections.FindByID(ctx, collectionID); err != nil {
			return nil, err
		}
		return s.bids.FindByCollectionID(ctx, collectionID)
	})
}

func (s *bidService) ListByCollectionWithDetails(ctx context.Context, collectionID uint) ([]model.BidWithDetails, error) {
	if _, err := s.collections.FindByID(ctx, collectionID); err != nil {
		return nil, err
	}
	return s.bids.FindByCollectionIDWithDetails(ctx, collectionID)
}

func (s *bidService) ListByUser(ctx context.Context, userID uint) ([]model.Bid, error) {
	return readThrough(ctx, s.caching, cache.UserBidsKey(userID), func() ([]model.Bid, error) {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			return nil, err
		}
		return s.bids.FindByUserID(ctx, userID)
	})
}

func (s *bidService) GetBid(ctx context.Context, id uint) (*model.Bid, error) {
	return s.bids.FindByID(ctx, id)
}

// PlaceBid creates a pending bid. The collection row is locked while the bid
// is written so that a concurrent acceptance either sees the new bid and
// rejects it, or closes the collection first and the bid is refused.
func (s *bidService) PlaceBid(ctx context.Context, actor Actor, input PlaceBidInput) (*model.Bid, error) {
	if actor.UserID == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	bidderID := input.UserID
	if bidderID == 0 {
		bidderID = actor.UserID
	}
	if !actor.Owns(bidderID) {
		return nil, fmt.Errorf("bid on behalf of user %d: %w", bidderID, apperrors.ErrForbidden)
	}
	if !model.ValidPrice(input.Price) {
		return nil, apperrors.ErrInvalidPrice
	}

	bid := &model.Bid{CollectionID: input.CollectionID, UserID: bidderID, Price: input.Price}
	err := s.bids.WithTransaction(ctx, func(ctx context.Context, bids repository.BidRepository, collections repository.CollectionRepository) error {
		collection, err := collections.FindByIDForUpdate(ctx, input.CollectionID)
		if err != nil {
			return err
		}
		if collection.OwnerID == bidderID {
			return fmt.Errorf("bid on own collection %d: %w", collection.ID, apperrors.ErrForbidden)
		}
		if !collection.IsOpen() {
			return fmt.Errorf("bid on collection %d: %w", collection.ID, apperrors.ErrCollectionClosed)
		}
		return bids.Create(ctx, bid)
	})
	if err != nil {
		return nil, err
	}

	s.caching.Invalidator.InvalidateBids(ctx, bid.CollectionID, bid.UserID)
	s.metrics.BidPlaced()
	return bid, nil
}

// UpdateBid routes a bid update. Accepting goes through AcceptBid; the owner
// may reject; the bidder may cancel or change the price while pending.
func (s *bidService) UpdateBid(ctx context.Context, actor Actor, bidID, collectionID uint, input UpdateBidInput) ([]model.Bid, error) {
	if input.Status == nil && input.Price == nil {
		return nil, apperrors.NewValidationError("", "status or price is required")
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if input.Status != nil && *input.Status == model.BidStatusAccepted {
		if input.Price != nil {
			return nil, apperrors.NewValidationError("price", "cannot change while accepting")
		}
		return s.AcceptBid(ctx, actor, bidID, collectionID)
	}

	bid, err := s.loadBid(ctx, bidID, collectionID)
	if err != nil {
		return nil, err
	}

	rejecting := input.Status != nil && *input.Status == model.BidStatusRejected
	if rejecting {
		collection, err := s.collections.FindByID(ctx, bid.CollectionID)
		if err != nil {
			return nil, err
		}
		if !actor.Owns(collection.OwnerID) {
			return nil, apperrors.ErrForbidden
		}
		if input.Price != nil {
			return nil, apperrors.NewValidationError("price", "only the bidder can change the price")
		}
	} else if !actor.Owns(bid.UserID) {
		return nil, apperrors.ErrForbidden
	}

	if _, err := s.bids.Update(ctx, bid.ID, model.BidUpdate{Price: input.Price, Status: input.Status}); err != nil {
		return nil, err
	}

	s.caching.Invalidator.InvalidateBids(ctx, bid.CollectionID, bid.UserID)
	if rejecting {
		s.metrics.BidRejectedByOwner()
	}
	return s.bids.FindByCollectionID(ctx, bid.CollectionID)
}

// AcceptBid accepts a pending bid, rejects every other pending bid of the
// collection and closes the collection, in one transaction. It returns the
// collection's bids as committed.
func (s *bidService) AcceptBid(ctx context.Context, actor Actor, bidID, collectionID uint) ([]model.Bid, error) {
	bid, err := s.loadBid(ctx, bidID, collectionID)
	if err != nil {
		return nil, err
	}

	var rejected []model.Bid
	err = s.bids.WithTransaction(ctx, func(ctx context.Context, bids repository.BidRepository, collections repository.CollectionRepository) error {
		collection, err := collections.FindByIDForUpdate(ctx, collectionID)
		if err != nil {
			return err
		}
		if !actor.Owns(collection.OwnerID) {
			return apperrors.ErrForbidden
		}
		if !collection.IsOpen() {
			return fmt.Errorf("accept bid %d: %w", bidID, apperrors.ErrCollectionClosed)
		}
		if err := bids.MarkAccepted(ctx, bidID); err != nil {
			return err
		}
		if rejected, err = bids.RejectPending(ctx, collectionID, bidID); err != nil {
			return err
		}
		return collections.Close(ctx, collectionID)
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			s.metrics.AcceptanceConflict()
		}
		return nil, err
	}

	s.caching.Invalidator.InvalidateBids(ctx, collectionID, append([]uint{bid.UserID}, bidderIDs(rejected)...)...)
	s.metrics.BidAccepted(len(rejected))
	s.log.Info("bid accepted",
		zap.Uint("bid_id", bidID),
		zap.Uint("collection_id", collectionID),
		zap.Uint("actor_id", actor.UserID),
		zap.Int("rejected", len(rejected)),
	)

	return s.bids.FindByCollectionID(ctx, collectionID)
}

// DeleteBid removes a pending bid. Only the bidder or an admin may do so.
func (s *bidService) DeleteBid(ctx context.Context, actor Actor, bidID uint) error {
	bid, err := s.bids.FindByID(ctx, bidID)
	if err != nil {
		return err
	}
	if !actor.Owns(bid.UserID) {
		return apperrors.ErrForbidden
	}
	if err := s.bids.Delete(ctx, bidID); err != nil {
		return err
	}

	s.caching.Invalidator.InvalidateBids(ctx, bid.CollectionID, bid.UserID)
	return nil
}

// loadBid fetches a bid and checks that it belongs to collectionID.
func (s *bidService) loadBid(ctx context.Context, bidID, collectionID uint) (*model.Bid, error) {
	bid, err := s.bids.FindByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.CollectionID != collectionID {
		return nil, apperrors.NewValidationError("collection_id", fmt.Sprintf("bid %d does not belong to collection %d", bidID, collectionID))
	}
	return bid, nil
}
