package service

import (
	"context"
	"testing"
	"time"

	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "test-access-secret-0123456789abcdef",
		RefreshSecret: "test-refresh-secret-0123456789abcdef",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 720 * time.Hour,
	}
}

func seedUser(users *fakeUserStore, phone string) *models.User {
	user := &models.User{
		Phone:  phone,
		Role:   models.RoleUser,
		Status: models.StatusActive,
	}
	users.Create(context.Background(), user)
	return users.byPhone[phone]
}

func TestIssuePairPersistsRefreshToken(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(users, "778001234")
	s := NewTokenService(users, newJWTConfig(), newTestLogger())

	pair, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, pair.RefreshToken, users.byPhone["778001234"].RandToken)

	userID, err := s.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestValidateAccessEmptyToken(t *testing.T) {
	s := NewTokenService(newFakeUserStore(), newJWTConfig(), newTestLogger())

	_, err := s.ValidateAccess("")
	assert.True(t, errs.Is(err, errs.CodeUnauthenticated))
}

func TestValidateAccessExpiredToken(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(users, "778001234")

	cfg := newJWTConfig()
	cfg.AccessExpiry = -time.Minute
	s := NewTokenService(users, cfg, newTestLogger())

	pair, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)

	_, err = s.ValidateAccess(pair.AccessToken)
	assert.True(t, errs.Is(err, errs.CodeAccessTokenExpired))
}

func TestValidateAccessTamperedToken(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(users, "778001234")
	s := NewTokenService(users, newJWTConfig(), newTestLogger())

	pair, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)

	_, err = s.ValidateAccess(pair.AccessToken + "x")
	assert.True(t, errs.Is(err, errs.CodeAttack))

	// A refresh token is signed with a different secret and must not pass
	// as an access token.
	_, err = s.ValidateAccess(pair.RefreshToken)
	assert.True(t, errs.Is(err, errs.CodeAttack))
}

func TestRotateIssuesFreshPair(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(users, "778001234")
	s := NewTokenService(users, newJWTConfig(), newTestLogger())

	pair, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)

	rotated, rotatedUser, err := s.Rotate(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, rotatedUser.ID)
	assert.Equal(t, rotated.RefreshToken, users.byPhone["778001234"].RandToken)
}

func TestRotateRejectsReplayedToken(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(users, "778001234")
	s := NewTokenService(users, newJWTConfig(), newTestLogger())

	first, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)
	second, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)

	_, _, err = s.Rotate(context.Background(), first.RefreshToken)
	assert.True(t, errs.Is(err, errs.CodeUnauthenticated))

	_, _, err = s.Rotate(context.Background(), second.RefreshToken)
	assert.NoError(t, err)
}

func TestRotateRejectsPhoneMismatch(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(users, "778001234")
	s := NewTokenService(users, newJWTConfig(), newTestLogger())

	pair, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)

	users.byPhone["778001234"].Phone = "778009999"

	_, _, err = s.Rotate(context.Background(), pair.RefreshToken)
	assert.True(t, errs.Is(err, errs.CodeUnauthenticated))
}

func TestRotateRejectsUnknownUser(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(users, "778001234")
	s := NewTokenService(users, newJWTConfig(), newTestLogger())

	pair, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)

	delete(users.byPhone, "778001234")

	_, _, err = s.Rotate(context.Background(), pair.RefreshToken)
	assert.True(t, errs.Is(err, errs.CodeUnauthenticated))
}

func TestInvalidateBreaksOutstandingRefreshTokens(t *testing.T) {
	users := newFakeUserStore()
	user := seedUser(users, "778001234")
	s := NewTokenService(users, newJWTConfig(), newTestLogger())

	pair, err := s.IssuePair(context.Background(), user.ID, user.Phone)
	require.NoError(t, err)

	require.NoError(t, s.Invalidate(context.Background(), user.Phone))

	_, _, err = s.Rotate(context.Background(), pair.RefreshToken)
	assert.True(t, errs.Is(err, errs.CodeUnauthenticated))
}
