package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"opensails/internal/db"
	"opensails/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// one connection keeps the in-memory database alive and shared
	gormDB, err := db.Open("sqlite", "file::memory:", db.Options{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

func createUser(t *testing.T, gormDB *gorm.DB, name string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, NewUserRepository(gormDB).Create(context.Background(), user))
	return user
}

func createCollection(t *testing.T, gormDB *gorm.DB, ownerID uint) *model.Collection {
	t.Helper()
	collection := &model.Collection{
		Name:    "GPU lot",
		Price:   decimal.NewFromInt(500),
		Stocks:  4,
		OwnerID: ownerID,
	}
	require.NoError(t, NewCollectionRepository(gormDB).Create(context.Background(), collection))
	return collection
}

func createBid(t *testing.T, gormDB *gorm.DB, collectionID, userID uint, price int64) *model.Bid {
	t.Helper()
	bid := &model.Bid{CollectionID: collectionID, UserID: userID, Price: decimal.NewFromInt(price)}
	require.NoError(t, NewBidRepository(gormDB).Create(context.Background(), bid))
	return bid
}
