package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "opensails/internal/errors"
	"opensails/internal/model"
)

// CollectionRepository defines collection persistence operations.
type CollectionRepository interface {
	Create(ctx context.Context, collection *model.Collection) error
	Update(ctx context.Context, id uint, update model.CollectionUpdate) (*model.Collection, error)
	Delete(ctx context.Context, id uint) error
	FindAll(ctx context.Context) ([]model.Collection, error)
	FindAllWithOwner(ctx context.Context) ([]model.CollectionWithOwner, error)
	FindByOwnerIDWithOwner(ctx context.Context, ownerID uint) ([]model.CollectionWithOwner, error)
	FindByID(ctx context.Context, id uint) (*model.Collection, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Collection, error)
	FindByOwnerID(ctx context.Context, ownerID uint) ([]model.Collection, error)
	// Close moves an open collection to closed. It fails with
	// ErrCollectionClosed when the collection is no longer open.
	Close(ctx context.Context, id uint) error
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository.
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// Create validates and inserts a collection. Status always starts open.
func (r *collectionRepository) Create(ctx context.Context, collection *model.Collection) error {
	if strings.TrimSpace(collection.Name) == "" {
		return apperrors.NewValidationError("name", "is required")
	}
	if err := validateCollectionFigures(collection.Price, collection.Stocks); err != nil {
		return err
	}

	ok, err := exists(ctx, r.db, &model.User{}, collection.OwnerID)
	if err != nil {
		return fmt.Errorf("check owner %d: %w", collection.OwnerID, err)
	}
	if !ok {
		return apperrors.ErrUserNotFound
	}

	collection.Status = model.CollectionStatusOpen
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(collection).Error; err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of update. A status change must follow
// the open -> closed rule.
func (r *collectionRepository) Update(ctx context.Context, id uint, update model.CollectionUpdate) (*model.Collection, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		if strings.TrimSpace(*update.Name) == "" {
			return nil, apperrors.NewValidationError("name", "is required")
		}
		fields["name"] = *update.Name
	}
	if update.Descriptions != nil {
		fields["descriptions"] = *update.Descriptions
	}
	price, stocks := current.Price, current.Stocks
	if update.Price != nil {
		price = *update.Price
		fields["price"] = price
	}
	if update.Stocks != nil {
		stocks = *update.Stocks
		fields["stocks"] = stocks
	}
	if err := validateCollectionFigures(price, stocks); err != nil {
		return nil, err
	}

	closing := false
	if update.Status != nil && *update.Status != current.Status {
		if !update.Status.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
		if !current.Status.CanTransitionTo(*update.Status) {
			return nil, fmt.Errorf("collection %d %s -> %s: %w", id, current.Status, *update.Status, apperrors.ErrInvalidTransition)
		}
		fields["status"] = *update.Status
		closing = true
	}

	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = time.Now()

	query := r.db.WithContext(ctx).Model(&model.Collection{}).Where("id = ?", id)
	if closing {
		query = query.Where("status = ?", model.CollectionStatusOpen)
	}
	res := query.Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("update collection %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update collection %d: %w", id, apperrors.ErrConflict)
	}
	return r.FindByID(ctx, id)
}

// Delete removes a collection; its bids go with it through the foreign key.
func (r *collectionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Collection{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete collection %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCollectionNotFound
	}
	return nil
}

// FindAll lists every collection.
func (r *collectionRepository) FindAll(ctx context.Context) ([]model.Collection, error) {
	var collections []model.Collection
	if err := r.db.WithContext(ctx).Order("id").Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

// FindAllWithOwner lists every collection joined with its owner's name and email.
func (r *collectionRepository) FindAllWithOwner(ctx context.Context) ([]model.CollectionWithOwner, error) {
	return r.scanWithOwner(r.withOwner(ctx))
}

// FindByOwnerIDWithOwner is FindAllWithOwner restricted to one owner.
func (r *collectionRepository) FindByOwnerIDWithOwner(ctx context.Context, ownerID uint) ([]model.CollectionWithOwner, error) {
	return r.scanWithOwner(r.withOwner(ctx).Where("collections.owner_id = ?", ownerID))
}

func (r *collectionRepository) withOwner(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("collections").
		Select("collections.*, users.name AS owner_name, users.email AS owner_email").
		Joins("JOIN users ON users.id = collections.owner_id")
}

func (r *collectionRepository) scanWithOwner(query *gorm.DB) ([]model.CollectionWithOwner, error) {
	var rows []model.CollectionWithOwner
	if err := query.Order("collections.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID finds a collection by ID.
func (r *collectionRepository) FindByID(ctx context.Context, id uint) (*model.Collection, error) {
	var collection model.Collection
	if err := r.db.WithContext(ctx).First(&collection, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrCollectionNotFound)
	}
	return &collection, nil
}

// FindByIDForUpdate finds a collection by ID with a row-level lock.
func (r *collectionRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Collection, error) {
	var collection model.Collection
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&collection, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrCollectionNotFound)
	}
	return &collection, nil
}

// FindByOwnerID lists the collections of one owner.
func (r *collectionRepository) FindByOwnerID(ctx context.Context, ownerID uint) ([]model.Collection, error) {
	var collections []model.Collection
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

func (r *collectionRepository) Close(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Collection{}).
		Where("id = ? AND status = ?", id, model.CollectionStatusOpen).
		Updates(map[string]interface{}{
			"status":     model.CollectionStatusClosed,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("close collection %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		ok, err := exists(ctx, r.db, &model.Collection{}, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrCollectionNotFound
		}
		return apperrors.ErrCollectionClosed
	}
	return nil
}

func validateCollectionFigures(price decimal.Decimal, stocks int) error {
	if !model.ValidPrice(price) {
		return apperrors.ErrInvalidPrice
	}
	if stocks < 1 {
		return apperrors.ErrInvalidStocks
	}
	return nil
}
