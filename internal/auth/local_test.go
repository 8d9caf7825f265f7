package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/models"
)

func TestLocalProvider_Authenticate(t *testing.T) {
	f := newFixture(t)
	provider := NewLocalProvider(f.db)

	u, err := provider.Authenticate("alice", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, u.ID)
	require.NotNil(t, u.LastLoginAt)

	var stored models.User
	require.NoError(t, f.db.First(&stored, f.user.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)

	_, err = provider.Authenticate("alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidPassword)

	_, err = provider.Authenticate("nobody", "s3cret!")
	require.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", f.user.ID).Update("active", false).Error)

	_, err = provider.Authenticate("alice", "s3cret!")
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestLocalProvider_ChangePassword(t *testing.T) {
	f := newFixture(t)
	provider := NewLocalProvider(f.db)

	require.ErrorIs(t, provider.ChangePassword(f.user.ID, "wrong", "next"), ErrInvalidOldPassword)
	require.NoError(t, provider.ChangePassword(f.user.ID, "s3cret!", "n3xt-secret"))

	_, err := provider.Authenticate("alice", "n3xt-secret")
	require.NoError(t, err)

	require.ErrorIs(t, provider.ChangePassword(999, "a", "b"), ErrUserNotFound)
}

func TestAuthenticator(t *testing.T) {
	f := newFixture(t)

	_, err := NewAuthenticator(&config.Auth{}, f.db)
	require.ErrorIs(t, err, config.ErrNoLoginSource)

	a, err := NewAuthenticator(&config.Auth{LocalDB: true}, f.db)
	require.NoError(t, err)
	require.NotNil(t, a.Local())

	u, err := a.Login("alice", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = a.Login("mallory", "x")
	require.ErrorIs(t, err, ErrUserNotFound)
}
