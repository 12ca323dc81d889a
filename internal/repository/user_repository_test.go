package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "opensails/internal/errors"
	"opensails/internal/model"
)

func TestUserRepository(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewUserRepository(gormDB)
	ctx := context.Background()

	alice := createUser(t, gormDB, "alice")
	assert.Equal(t, model.RoleUser, alice.Role)

	byID, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	err = repo.Create(ctx, &model.User{Name: "dup", Email: "alice@example.com", PasswordHash: "x"})
	assert.Error(t, err)

	createUser(t, gormDB, "bob")
	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
