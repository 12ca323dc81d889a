package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opensails/internal/cache"
	apperrors "opensails/internal/errors"
	"opensails/internal/model"
)

func TestUserService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleUser)
	env.user(t, "bob", model.RoleAdmin)

	svc := NewUserService(env.users, env.caching)

	got, err := svc.GetUser(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.True(t, env.redis.Exists(cache.UserKey(alice.UserID)))

	raw, err := env.redis.Get(cache.UserKey(alice.UserID))
	require.NoError(t, err)
	assert.NotContains(t, raw, "password", "password hash must never be cached")

	cached, err := svc.GetUser(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, cached.ID)

	_, err = svc.GetUser(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
