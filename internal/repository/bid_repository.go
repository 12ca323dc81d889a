package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "opensails/internal/errors"
	"opensails/internal/model"
)

// TxFunc runs inside a database transaction with repositories bound to it.
type TxFunc func(ctx context.Context, bids BidRepository, collections CollectionRepository) error

// BidRepository defines bid persistence operations. Every status write goes
// through the bid state machine; accepted can only be set by MarkAccepted,
// which is meant to run inside WithTransaction together with RejectPending
// and CollectionRepository.Close.
type BidRepository interface {
	Create(ctx context.Context, bid *model.Bid) error
	Update(ctx context.Context, id uint, update model.BidUpdate) (*model.Bid, error)
	UpdateStatus(ctx context.Context, id uint, status model.BidStatus) (*model.Bid, error)
	Delete(ctx context.Context, id uint) error
	FindAll(ctx context.Context) ([]model.Bid, error)
	FindByID(ctx context.Context, id uint) (*model.Bid, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Bid, error)
	FindByCollectionID(ctx context.Context, collectionID uint) ([]model.Bid, error)
	FindByCollectionIDWithDetails(ctx context.Context, collectionID uint) ([]model.BidWithDetails, error)
	FindByUserID(ctx context.Context, userID uint) ([]model.Bid, error)
	// Transaction methods
	MarkAccepted(ctx context.Context, id uint) error
	RejectPending(ctx context.Context, collectionID, exceptID uint) ([]model.Bid, error)
	WithTransaction(ctx context.Context, fn TxFunc) error
}

type bidRepository struct {
	db *gorm.DB
}

// NewBidRepository creates a new bid repository.
func NewBidRepository(db *gorm.DB) BidRepository {
	return &bidRepository{db: db}
}

// Create validates and inserts a pending bid. Nothing is written when
// validation fails.
func (r *bidRepository) Create(ctx context.Context, bid *model.Bid) error {
	if !model.ValidPrice(bid.Price) {
		return apperrors.ErrInvalidPrice
	}

	ok, err := exists(ctx, r.db, &model.Collection{}, bid.CollectionID)
	if err != nil {
		return fmt.Errorf("check collection %d: %w", bid.CollectionID, err)
	}
	if !ok {
		return apperrors.ErrCollectionNotFound
	}
	ok, err = exists(ctx, r.db, &model.User{}, bid.UserID)
	if err != nil {
		return fmt.Errorf("check user %d: %w", bid.UserID, err)
	}
	if !ok {
		return apperrors.ErrUserNotFound
	}

	bid.Status = model.BidStatusPending
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(bid).Error; err != nil {
		return fmt.Errorf("create bid: %w", err)
	}
	return nil
}

// Update changes the price of a pending bid and/or moves its status.
func (r *bidRepository) Update(ctx context.Context, id uint, update model.BidUpdate) (*model.Bid, error) {
	if update.Price == nil && update.Status == nil {
		return r.FindByID(ctx, id)
	}
	if update.Price != nil && !model.ValidPrice(*update.Price) {
		return nil, apperrors.ErrInvalidPrice
	}

	var updated *model.Bid
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &bidRepository{db: tx}
		if update.Price != nil {
			res := tx.WithContext(ctx).Model(&model.Bid{}).
				Where("id = ? AND status = ?", id, model.BidStatusPending).
				Updates(map[string]interface{}{
					"price":      *update.Price,
					"updated_at": time.Now(),
				})
			if res.Error != nil {
				return fmt.Errorf("update bid %d price: %w", id, res.Error)
			}
			if res.RowsAffected == 0 {
				return txRepo.missingOrResolved(ctx, id)
			}
		}
		if update.Status != nil {
			if _, err := txRepo.UpdateStatus(ctx, id, *update.Status); err != nil {
				return err
			}
		}
		bid, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		updated = bid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateStatus moves a bid to status if the state machine allows it from the
// bid's current status. The check and the write are a single conditional
// UPDATE, so a concurrent resolution makes this call fail instead of
// overwriting a terminal status.
func (r *bidRepository) UpdateStatus(ctx context.Context, id uint, status model.BidStatus) (*model.Bid, error) {
	if !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if status == model.BidStatusAccepted {
		return nil, fmt.Errorf("bid %d: accepted is only set by the acceptance transaction: %w", id, apperrors.ErrInvalidTransition)
	}

	from := status.Predecessors()
	res := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update bid %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("bid %d %s -> %s: %w", id, current.Status, status, apperrors.ErrInvalidTransition)
	}
	return r.FindByID(ctx, id)
}

// Delete removes a bid that is still pending.
func (r *bidRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, model.BidStatusPending).
		Delete(&model.Bid{})
	if res.Error != nil {
		return fmt.Errorf("delete bid %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missingOrResolved(ctx, id)
	}
	return nil
}

// FindAll lists every bid.
func (r *bidRepository) FindAll(ctx context.Context) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).Order("id").Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

// FindByID finds a bid by ID.
func (r *bidRepository) FindByID(ctx context.Context, id uint) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.WithContext(ctx).First(&bid, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrBidNotFound)
	}
	return &bid, nil
}

// FindByIDForUpdate finds a bid by ID with a row-level lock.
func (r *bidRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&bid, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrBidNotFound)
	}
	return &bid, nil
}

// FindByCollectionID lists the bids of a collection, oldest first.
func (r *bidRepository) FindByCollectionID(ctx context.Context, collectionID uint) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).Where("collection_id = ?", collectionID).
		Order("created_at, id").Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

// FindByCollectionIDWithDetails lists the bids of a collection joined with
// bidder and collection display fields.
func (r *bidRepository) FindByCollectionIDWithDetails(ctx context.Context, collectionID uint) ([]model.BidWithDetails, error) {
	var rows []model.BidWithDetails
	err := r.db.WithContext(ctx).
		Table("bids").
		Select("bids.*, users.name AS user_name, users.email AS user_email, " +
			"collections.name AS collection_name, collections.status AS collection_status").
		Joins("JOIN users ON users.id = bids.user_id").
		Joins("JOIN collections ON collections.id = bids.collection_id").
		Where("bids.collection_id = ?", collectionID).
		Order("bids.created_at, bids.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByUserID lists the bids placed by one user, newest first.
func (r *bidRepository) FindByUserID(ctx context.Context, userID uint) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

// MarkAccepted sets a pending bid to accepted. The pending predicate is
// evaluated by the UPDATE itself; ErrBidNotPending means another writer
// resolved the bid first.
func (r *bidRepository) MarkAccepted(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("id = ? AND status = ?", id, model.BidStatusPending).
		Updates(map[string]interface{}{
			"status":     model.BidStatusAccepted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("accept bid %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missingOrResolved(ctx, id)
	}
	return nil
}

// RejectPending rejects every pending bid of a collection except exceptID
// and returns the rejected rows.
func (r *bidRepository) RejectPending(ctx context.Context, collectionID, exceptID uint) ([]model.Bid, error) {
	var pending []model.Bid
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("collection_id = ? AND id <> ? AND status = ?", collectionID, exceptID, model.BidStatusPending).
		Order("id").
		Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("lock pending bids of collection %d: %w", collectionID, err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("collection_id = ? AND id <> ? AND status = ?", collectionID, exceptID, model.BidStatusPending).
		Updates(map[string]interface{}{
			"status":     model.BidStatusRejected,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("reject pending bids of collection %d: %w", collectionID, res.Error)
	}
	if res.RowsAffected != int64(len(pending)) {
		return nil, fmt.Errorf("reject pending bids of collection %d: %w", collectionID, apperrors.ErrConflict)
	}

	for i := range pending {
		pending[i].Status = model.BidStatusRejected
		pending[i].UpdatedAt = now
	}
	return pending, nil
}

// WithTransaction executes fn within a database transaction. Returning an
// error from fn rolls back every write made through the given repositories.
func (r *bidRepository) WithTransaction(ctx context.Context, fn TxFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &bidRepository{db: tx}, &collectionRepository{db: tx})
	})
}

// missingOrResolved explains why a conditional write on a pending bid
// matched no row.
func (r *bidRepository) missingOrResolved(ctx context.Context, id uint) error {
	ok, err := exists(ctx, r.db, &model.Bid{}, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrBidNotFound
	}
	return fmt.Errorf("bid %d: %w", id, apperrors.ErrBidNotPending)
}
