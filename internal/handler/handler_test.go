package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opensails/internal/auth"
	apperrors "opensails/internal/errors"
	"opensails/internal/model"
	"opensails/internal/service"
)

type fixture struct {
	e     *echo.Echo
	bids  *MockBidService
	cols  *MockCollectionService
	auth  *MockAuthService
	users *MockUserService
}

// newFixture serves the handlers with claims injected the way echo-jwt
// would. nil claims means an anonymous request.
func newFixture(claims *auth.Claims) *fixture {
	f := &fixture{
		e:     echo.New(),
		bids:  new(MockBidService),
		cols:  new(MockCollectionService),
		auth:  new(MockAuthService),
		users: new(MockUserService),
	}
	f.e.Validator = NewValidator()

	withClaims := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims != nil {
				c.Set(auth.ContextKey, &jwt.Token{Claims: claims, Valid: true})
			}
			return next(c)
		}
	}

	bidH := NewBidHandler(f.bids)
	colH := NewCollectionHandler(f.cols)
	authH := NewAuthHandler(f.auth, f.users)
	userH := NewUserHandler(f.users, f.bids)

	api := f.e.Group("/api", withClaims)
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/logout", authH.Logout)
	api.GET("/me", authH.Me)
	api.GET("/users/:id", userH.GetUser)
	api.GET("/users/:id/bids", userH.ListUserBids)
	api.GET("/collections", colH.ListCollections)
	api.POST("/collections", colH.CreateCollection)
	api.PUT("/collections/:id", colH.UpdateCollection)
	api.DELETE("/collections/:id", colH.DeleteCollection)
	api.GET("/bids", bidH.ListBids)
	api.GET("/bids/:id", bidH.GetBid)
	api.POST("/bids", bidH.PlaceBid)
	api.PUT("/bids", bidH.UpdateBid)
	api.DELETE("/bids", bidH.DeleteBid)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Code
}

var ownerClaims = &auth.Claims{UserID: 1, Role: model.RoleUser}

func TestBidHandler_UpdateBid(t *testing.T) {
	accepted := model.BidStatusAccepted
	owner := service.Actor{UserID: 1, Role: model.RoleUser}

	tests := []struct {
		name       string
		claims     *auth.Claims
		target     string
		body       string
		setup      func(*MockBidService)
		wantStatus int
		wantCode   string
	}{
		{
			name:   "accept",
			claims: ownerClaims,
			target: "/api/bids?bid_id=11&collection_id=1",
			body:   `{"status":"accepted"}`,
			setup: func(m *MockBidService) {
				m.On("UpdateBid", mock.Anything, owner, uint(11), uint(1), service.UpdateBidInput{Status: &accepted}).
					Return([]model.Bid{{ID: 11, Status: model.BidStatusAccepted}, {ID: 10, Status: model.BidStatusRejected}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "already resolved",
			claims: ownerClaims,
			target: "/api/bids?bid_id=10&collection_id=1",
			body:   `{"status":"accepted"}`,
			setup: func(m *MockBidService) {
				m.On("UpdateBid", mock.Anything, owner, uint(10), uint(1), mock.Anything).
					Return(nil, apperrors.ErrCollectionClosed)
			},
			wantStatus: http.StatusConflict,
			wantCode:   "COLLECTION_CLOSED",
		},
		{
			name:       "missing bid id",
			claims:     ownerClaims,
			target:     "/api/bids?collection_id=1",
			body:       `{"status":"accepted"}`,
			setup:      func(*MockBidService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "anonymous",
			target:     "/api/bids?bid_id=10&collection_id=1",
			body:       `{"status":"accepted"}`,
			setup:      func(*MockBidService) {},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:   "not the owner",
			claims: &auth.Claims{UserID: 2},
			target: "/api/bids?bid_id=10&collection_id=1",
			body:   `{"status":"rejected"}`,
			setup: func(m *MockBidService) {
				m.On("UpdateBid", mock.Anything, service.Actor{UserID: 2}, uint(10), uint(1), mock.Anything).
					Return(nil, apperrors.ErrForbidden)
			},
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.claims)
			tt.setup(f.bids)

			rec := f.do(http.MethodPut, tt.target, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
			f.bids.AssertExpectations(t)
		})
	}
}

func TestBidHandler_AcceptReturnsRefreshedList(t *testing.T) {
	f := newFixture(ownerClaims)
	f.bids.On("UpdateBid", mock.Anything, mock.Anything, uint(11), uint(1), mock.Anything).
		Return([]model.Bid{{ID: 11, CollectionID: 1, Status: model.BidStatusAccepted}}, nil)

	rec := f.do(http.MethodPut, "/api/bids?bid_id=11&collection_id=1", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "accepted", got[0]["status"])
	assert.EqualValues(t, 1, got[0]["collectionId"])
}

func TestBidHandler_PlaceBid(t *testing.T) {
	f := newFixture(&auth.Claims{UserID: 3})
	f.bids.On("PlaceBid", mock.Anything, service.Actor{UserID: 3}, mock.MatchedBy(func(in service.PlaceBidInput) bool {
		return in.CollectionID == 1 && in.UserID == 3 && in.Price.Equal(decimal.RequireFromString("120.5"))
	})).Return(&model.Bid{ID: 9, CollectionID: 1, UserID: 3, Status: model.BidStatusPending}, nil)

	rec := f.do(http.MethodPost, "/api/bids", `{"collectionId":1,"userId":3,"price":120.5}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	f.bids.AssertExpectations(t)

	rec = f.do(http.MethodPost, "/api/bids", `{"price":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/bids", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rec))
}

func TestBidHandler_Listing(t *testing.T) {
	f := newFixture(nil)
	f.bids.On("ListBids", mock.Anything).Return([]model.Bid{}, nil)
	f.bids.On("ListByCollection", mock.Anything, uint(1)).Return([]model.Bid{{ID: 10}}, nil)
	f.bids.On("ListByCollectionWithDetails", mock.Anything, uint(1)).Return([]model.BidWithDetails{{UserName: "alice"}}, nil)
	f.bids.On("GetBid", mock.Anything, uint(404)).Return(nil, apperrors.ErrBidNotFound)
	f.bids.On("ListByUser", mock.Anything, uint(2)).Return([]model.Bid{{ID: 10, UserID: 2}}, nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/bids", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/bids?collection_id=1", "").Code)

	rec := f.do(http.MethodGet, "/api/bids?collection_id=1&details=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userName":"alice"`)

	rec = f.do(http.MethodGet, "/api/bids/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "BID_NOT_FOUND", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/bids?collection_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/users/2/bids", "").Code)
	f.bids.AssertExpectations(t)
}

func TestBidHandler_DeleteBid(t *testing.T) {
	f := newFixture(&auth.Claims{UserID: 3})
	f.bids.On("DeleteBid", mock.Anything, service.Actor{UserID: 3}, uint(7)).Return(nil)
	f.bids.On("DeleteBid", mock.Anything, service.Actor{UserID: 3}, uint(8)).Return(apperrors.ErrBidNotPending)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/bids?bid_id=7", "").Code)

	rec := f.do(http.MethodDelete, "/api/bids?bid_id=8", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "BID_NOT_PENDING", errorCode(t, rec))
}

func TestCollectionHandler(t *testing.T) {
	f := newFixture(ownerClaims)
	owner := service.Actor{UserID: 1, Role: model.RoleUser}

	f.cols.On("ListCollectionsByOwner", mock.Anything, uint(2)).Return([]model.Collection{{ID: 5, OwnerID: 2}}, nil)
	f.cols.On("ListCollectionsWithOwner", mock.Anything).Return([]model.CollectionWithOwner{{OwnerName: "owner"}}, nil)
	f.cols.On("ListCollectionsByOwnerWithOwner", mock.Anything, uint(2)).Return([]model.CollectionWithOwner{{Collection: model.Collection{ID: 5, OwnerID: 2}, OwnerName: "second"}}, nil)
	f.cols.On("CreateCollection", mock.Anything, owner, mock.MatchedBy(func(in service.CreateCollectionInput) bool {
		return in.Name == "GPU lot" && in.Stocks == 3 && in.Price.Equal(decimal.NewFromInt(900))
	})).Return(&model.Collection{ID: 6, Name: "GPU lot", OwnerID: 1, Status: model.CollectionStatusOpen}, nil)
	f.cols.On("UpdateCollection", mock.Anything, owner, uint(6), mock.MatchedBy(func(u model.CollectionUpdate) bool {
		return u.Status != nil && *u.Status == model.CollectionStatusClosed
	})).Return(&model.Collection{ID: 6, Status: model.CollectionStatusClosed}, nil)
	f.cols.On("DeleteCollection", mock.Anything, owner, uint(6)).Return(apperrors.ErrCollectionClosed)

	rec := f.do(http.MethodGet, "/api/collections?owner_id=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ownerId":2`)

	rec = f.do(http.MethodGet, "/api/collections?with_owner=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ownerName":"owner"`)

	rec = f.do(http.MethodGet, "/api/collections?owner_id=2&with_owner=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ownerName":"second"`)
	assert.Contains(t, rec.Body.String(), `"ownerId":2`)

	rec = f.do(http.MethodPost, "/api/collections", `{"name":"GPU lot","price":"900","stocks":3}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/collections", `{"price":"900","stocks":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, "/api/collections/6", `{"status":"closed"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodDelete, "/api/collections/6", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.cols.AssertExpectations(t)
}

func TestAuthHandler(t *testing.T) {
	f := newFixture(ownerClaims)
	f.auth.On("Register", mock.Anything, "new@example.com", "secret1", "New").Return(&model.User{ID: 4, Email: "new@example.com"}, nil)
	f.auth.On("Register", mock.Anything, "dup@example.com", "secret1", "Dup").Return(nil, apperrors.ErrUserAlreadyExists)
	f.auth.On("Login", mock.Anything, "new@example.com", "wrong").Return("", "", nil, apperrors.ErrInvalidCredentials)
	f.auth.On("Login", mock.Anything, "new@example.com", "secret1").Return("access", "refresh", &model.User{ID: 4}, nil)
	f.auth.On("Logout", mock.Anything, "refresh", ownerClaims).Return(nil)
	f.users.On("GetUser", mock.Anything, uint(1)).Return(&model.User{ID: 1, Email: "owner@example.com", PasswordHash: "hash"}, nil)

	rec := f.do(http.MethodPost, "/api/auth/register", `{"email":"new@example.com","password":"secret1","name":"New"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/register", `{"email":"dup@example.com","password":"secret1","name":"Dup"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "USER_ALREADY_EXISTS", errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/auth/register", `{"email":"not-an-email","password":"secret1","name":"X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/auth/login", `{"email":"new@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)

	rec = f.do(http.MethodPost, "/api/auth/logout", `{"refresh_token":"refresh"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")

	f.auth.AssertExpectations(t)
	f.users.AssertExpectations(t)
}
