package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"opensails/internal/auth"
	"opensails/internal/model"
	"opensails/internal/service"
)

type MockBidService struct {
	mock.Mock
}

func bidsOrNil(args mock.Arguments) []model.Bid {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Bid)
}

func (m *MockBidService) ListBids(ctx context.Context) ([]model.Bid, error) {
	args := m.Called(ctx)
	return bidsOrNil(args), args.Error(1)
}

func (m *MockBidService) ListByCollection(ctx context.Context, collectionID uint) ([]model.Bid, error) {
	args := m.Called(ctx, collectionID)
	return bidsOrNil(args), args.Error(1)
}

func (m *MockBidService) ListByCollectionWithDetails(ctx context.Context, collectionID uint) ([]model.BidWithDetails, error) {
	args := m.Called(ctx, collectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BidWithDetails), args.Error(1)
}

func (m *MockBidService) ListByUser(ctx context.Context, userID uint) ([]model.Bid, error) {
	args := m.Called(ctx, userID)
	return bidsOrNil(args), args.Error(1)
}

func (m *MockBidService) GetBid(ctx context.Context, id uint) (*model.Bid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Bid), args.Error(1)
}

func (m *MockBidService) PlaceBid(ctx context.Context, actor service.Actor, input service.PlaceBidInput) (*model.Bid, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Bid), args.Error(1)
}

func (m *MockBidService) UpdateBid(ctx context.Context, actor service.Actor, bidID, collectionID uint, input service.UpdateBidInput) ([]model.Bid, error) {
	args := m.Called(ctx, actor, bidID, collectionID, input)
	return bidsOrNil(args), args.Error(1)
}

func (m *MockBidService) AcceptBid(ctx context.Context, actor service.Actor, bidID, collectionID uint) ([]model.Bid, error) {
	args := m.Called(ctx, actor, bidID, collectionID)
	return bidsOrNil(args), args.Error(1)
}

func (m *MockBidService) DeleteBid(ctx context.Context, actor service.Actor, bidID uint) error {
	return m.Called(ctx, actor, bidID).Error(0)
}

type MockCollectionService struct {
	mock.Mock
}

func (m *MockCollectionService) ListCollections(ctx context.Context) ([]model.Collection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Collection), args.Error(1)
}

func (m *MockCollectionService) ListCollectionsByOwner(ctx context.Context, ownerID uint) ([]model.Collection, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Collection), args.Error(1)
}

func (m *MockCollectionService) ListCollectionsWithOwner(ctx context.Context) ([]model.CollectionWithOwner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CollectionWithOwner), args.Error(1)
}

func (m *MockCollectionService) ListCollectionsByOwnerWithOwner(ctx context.Context, ownerID uint) ([]model.CollectionWithOwner, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CollectionWithOwner), args.Error(1)
}

func (m *MockCollectionService) GetCollection(ctx context.Context, id uint) (*model.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Collection), args.Error(1)
}

func (m *MockCollectionService) CreateCollection(ctx context.Context, actor service.Actor, input service.CreateCollectionInput) (*model.Collection, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Collection), args.Error(1)
}

func (m *MockCollectionService) UpdateCollection(ctx context.Context, actor service.Actor, id uint, update model.CollectionUpdate) (*model.Collection, error) {
	args := m.Called(ctx, actor, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Collection), args.Error(1)
}

func (m *MockCollectionService) DeleteCollection(ctx context.Context, actor service.Actor, id uint) error {
	return m.Called(ctx, actor, id).Error(0)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	args := m.Called(ctx, email, password, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, string, *model.User, error) {
	args := m.Called(ctx, email, password)
	var user *model.User
	if args.Get(2) != nil {
		user = args.Get(2).(*model.User)
	}
	return args.String(0), args.String(1), user, args.Error(3)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string, session *auth.Claims) error {
	return m.Called(ctx, refreshToken, session).Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}
