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
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(users *fakeUserStore, otps *fakeOtpStore, now time.Time) *AuthService {
	tokens := NewTokenService(users, newJWTConfig(), newTestLogger())
	s := NewAuthService(users, otps, tokens, &config.OTPConfig{
		RequestLimit:  5,
		ErrorLimit:    5,
		VerifyWindow:  2 * time.Minute,
		ConfirmWindow: 10 * time.Minute,
		ResetWindow:   5 * time.Minute,
	}, newTestLogger())
	s.now = func() time.Time { return now }
	return s
}

func seedRegisteredUser(t *testing.T, users *fakeUserStore, phone, password string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Phone:    phone,
		Password: string(hashed),
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return users.byPhone[phone]
}

func TestLoginSuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	seedRegisteredUser(t, users, "778001234", "11112222")
	users.byPhone["778001234"].ErrorLoginCount = 2
	users.byPhone["778001234"].LastFailedLogin = now.Add(-time.Hour)
	s := newAuthService(users, newFakeOtpStore(), now)

	user, pair, err := s.Login(context.Background(), "778001234", "11112222")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "778001234", user.Phone)
	assert.Equal(t, 0, users.byPhone["778001234"].ErrorLoginCount)
	assert.Equal(t, pair.RefreshToken, users.byPhone["778001234"].RandToken)
}

func TestLoginUnknownPhone(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s := newAuthService(newFakeUserStore(), newFakeOtpStore(), now)

	_, _, err := s.Login(context.Background(), "778001234", "11112222")
	assert.True(t, errs.Is(err, errs.CodeUnauthenticated))
}

func TestLoginWrongPasswordCountsFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	seedRegisteredUser(t, users, "778001234", "11112222")
	s := newAuthService(users, newFakeOtpStore(), now)

	_, _, err := s.Login(context.Background(), "778001234", "99998888")
	assert.True(t, errs.Is(err, errs.CodeInvalid))
	assert.Equal(t, 1, users.byPhone["778001234"].ErrorLoginCount)
	assert.Equal(t, models.StatusActive, users.byPhone["778001234"].Status)
}

func TestLoginThirdSameDayFailureFreezes(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	seedRegisteredUser(t, users, "778001234", "11112222")
	users.byPhone["778001234"].ErrorLoginCount = 2
	users.byPhone["778001234"].LastFailedLogin = now.Add(-time.Hour)
	s := newAuthService(users, newFakeOtpStore(), now)

	_, _, err := s.Login(context.Background(), "778001234", "99998888")
	assert.True(t, errs.Is(err, errs.CodeInvalid))
	assert.Equal(t, 3, users.byPhone["778001234"].ErrorLoginCount)
	assert.Equal(t, models.StatusFreeze, users.byPhone["778001234"].Status)
}

func TestLoginNewDayRestartsFailureCount(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	seedRegisteredUser(t, users, "778001234", "11112222")
	users.byPhone["778001234"].ErrorLoginCount = 2
	users.byPhone["778001234"].LastFailedLogin = now.Add(-24 * time.Hour)
	s := newAuthService(users, newFakeOtpStore(), now)

	_, _, err := s.Login(context.Background(), "778001234", "99998888")
	assert.True(t, errs.Is(err, errs.CodeInvalid))
	assert.Equal(t, 1, users.byPhone["778001234"].ErrorLoginCount)
	assert.Equal(t, models.StatusActive, users.byPhone["778001234"].Status)
}

func TestLoginFrozenAccountRejectedBeforePasswordCheck(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	seedRegisteredUser(t, users, "778001234", "11112222")
	users.byPhone["778001234"].Status = models.StatusFreeze
	s := newAuthService(users, newFakeOtpStore(), now)

	// Even the correct password must not unlock a frozen account.
	_, _, err := s.Login(context.Background(), "778001234", "11112222")
	assert.True(t, errs.Is(err, errs.CodeAccountFreeze))
}

func TestConfirmPasswordCreatesUserAndSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		VerifiedToken: "verified-token",
		UpdatedAt:     now.Add(-time.Minute),
	}
	s := newAuthService(users, otps, now)

	user, pair, err := s.ConfirmPassword(context.Background(), "778001234", "11112222", "verified-token")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.StatusActive, user.Status)

	stored := users.byPhone["778001234"]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("11112222")))
}

func TestConfirmPasswordRejectsRegisteredPhone(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	seedRegisteredUser(t, users, "778001234", "11112222")
	s := newAuthService(users, newFakeOtpStore(), now)

	_, _, err := s.ConfirmPassword(context.Background(), "778001234", "11112222", "verified-token")
	assert.True(t, errs.Is(err, errs.CodeAlreadyExist))
}

func TestConfirmPasswordTokenMismatchLocksRow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		VerifiedToken: "verified-token",
		UpdatedAt:     now.Add(-time.Minute),
	}
	s := newAuthService(newFakeUserStore(), otps, now)

	_, _, err := s.ConfirmPassword(context.Background(), "778001234", "11112222", "forged-token")
	assert.True(t, errs.Is(err, errs.CodeAttack))
	assert.Equal(t, 5, otps.rows["778001234"].ErrorCount)
}

func TestConfirmPasswordWindowExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		VerifiedToken: "verified-token",
		UpdatedAt:     now.Add(-11 * time.Minute),
	}
	s := newAuthService(newFakeUserStore(), otps, now)

	_, _, err := s.ConfirmPassword(context.Background(), "778001234", "11112222", "verified-token")
	assert.True(t, errs.Is(err, errs.CodeRequestExpired))
}

func TestResetPasswordSuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	seedRegisteredUser(t, users, "778001234", "11112222")
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		VerifiedToken: "verified-token",
		UpdatedAt:     now.Add(-time.Minute),
	}
	s := newAuthService(users, otps, now)

	_, pair, err := s.ResetPassword(context.Background(), "778001234", "33334444", "verified-token")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	stored := users.byPhone["778001234"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("33334444")))
}

func TestResetPasswordUnknownPhone(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s := newAuthService(newFakeUserStore(), newFakeOtpStore(), now)

	_, _, err := s.ResetPassword(context.Background(), "778001234", "33334444", "verified-token")
	assert.True(t, errs.Is(err, errs.CodeNotFound))
}

func TestResetPasswordWindowShorterThanConfirm(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	seedRegisteredUser(t, users, "778001234", "11112222")
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		VerifiedToken: "verified-token",
		UpdatedAt:     now.Add(-7 * time.Minute),
	}
	s := newAuthService(users, otps, now)

	// Seven minutes is still inside the confirm window but past the reset one.
	_, _, err := s.ResetPassword(context.Background(), "778001234", "33334444", "verified-token")
	assert.True(t, errs.Is(err, errs.CodeRequestExpired))
}

func TestLogoutInvalidatesSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	user := seedRegisteredUser(t, users, "778001234", "11112222")
	s := newAuthService(users, newFakeOtpStore(), now)

	_, pair, err := s.Login(context.Background(), "778001234", "11112222")
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background(), user.ID))
	assert.NotEqual(t, pair.RefreshToken, users.byPhone["778001234"].RandToken)
}
