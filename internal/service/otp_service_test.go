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

func newOTPService(otps *fakeOtpStore, users *fakeUserStore, now time.Time) *OTPService {
	s := NewOTPService(otps, users, &config.OTPConfig{
		RequestLimit:  5,
		ErrorLimit:    5,
		VerifyWindow:  2 * time.Minute,
		ConfirmWindow: 10 * time.Minute,
		ResetWindow:   5 * time.Minute,
	}, &config.AppConfig{Env: "development"}, newTestLogger())
	s.now = func() time.Time { return now }
	return s
}

func hashOTP(t *testing.T, code string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func TestRequestOTPFirstRequest(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	s := newOTPService(otps, newFakeUserStore(), now)

	issue, err := s.RequestOTP(context.Background(), "778001234", true)
	require.NoError(t, err)
	require.NotEmpty(t, issue.RememberToken)

	row := otps.rows["778001234"]
	require.NotNil(t, row)
	assert.Equal(t, 1, row.Count)
	assert.Equal(t, 0, row.ErrorCount)
	assert.Equal(t, issue.RememberToken, row.RememberToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(row.OtpHash), []byte(devOTP)))
}

func TestRequestOTPRegistrationRequiresUnclaimedPhone(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserStore()
	users.byPhone["778001234"] = &models.User{ID: 1, Phone: "778001234"}
	s := newOTPService(newFakeOtpStore(), users, now)

	_, err := s.RequestOTP(context.Background(), "778001234", true)
	assert.True(t, errs.Is(err, errs.CodeAlreadyExist))
}

func TestRequestOTPResetRequiresRegisteredPhone(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s := newOTPService(newFakeOtpStore(), newFakeUserStore(), now)

	_, err := s.RequestOTP(context.Background(), "778001234", false)
	assert.True(t, errs.Is(err, errs.CodeNotFound))
}

func TestRequestOTPSameDayLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:     "778001234",
		Count:     5,
		UpdatedAt: now.Add(-time.Hour),
	}
	s := newOTPService(otps, newFakeUserStore(), now)

	_, err := s.RequestOTP(context.Background(), "778001234", true)
	assert.True(t, errs.Is(err, errs.CodeOverLimit))
}

func TestRequestOTPNewDayResetsCounters(t *testing.T) {
	now := time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:      "778001234",
		Count:      5,
		ErrorCount: 3,
		UpdatedAt:  now.Add(-time.Hour),
	}
	s := newOTPService(otps, newFakeUserStore(), now)

	_, err := s.RequestOTP(context.Background(), "778001234", true)
	require.NoError(t, err)

	row := otps.rows["778001234"]
	assert.Equal(t, 1, row.Count)
	assert.Equal(t, 0, row.ErrorCount)
}

func TestRequestOTPLockedAfterErrors(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:      "778001234",
		Count:      1,
		ErrorCount: 5,
		UpdatedAt:  now.Add(-time.Minute),
	}
	s := newOTPService(otps, newFakeUserStore(), now)

	_, err := s.RequestOTP(context.Background(), "778001234", true)
	assert.True(t, errs.Is(err, errs.CodeOverLimit))
}

func TestRequestOTPIncrementsWithinBudget(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:     "778001234",
		Count:     2,
		UpdatedAt: now.Add(-time.Hour),
	}
	s := newOTPService(otps, newFakeUserStore(), now)

	_, err := s.RequestOTP(context.Background(), "778001234", true)
	require.NoError(t, err)
	assert.Equal(t, 3, otps.rows["778001234"].Count)
}

func TestVerifyOTPRememberMismatchLocksRow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		OtpHash:       hashOTP(t, devOTP),
		RememberToken: "legit-token",
		Count:         1,
		UpdatedAt:     now.Add(-time.Minute),
	}
	s := newOTPService(otps, newFakeUserStore(), now)

	_, err := s.VerifyOTP(context.Background(), "778001234", devOTP, "forged-token", true)
	assert.True(t, errs.Is(err, errs.CodeAttack))
	assert.Equal(t, 5, otps.rows["778001234"].ErrorCount)

	// The row is now locked even for the correct token.
	_, err = s.VerifyOTP(context.Background(), "778001234", devOTP, "legit-token", true)
	assert.True(t, errs.Is(err, errs.CodeOverLimit))
}

func TestVerifyOTPExpiredWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		OtpHash:       hashOTP(t, devOTP),
		RememberToken: "legit-token",
		Count:         1,
		UpdatedAt:     now.Add(-3 * time.Minute),
	}
	s := newOTPService(otps, newFakeUserStore(), now)

	_, err := s.VerifyOTP(context.Background(), "778001234", devOTP, "legit-token", true)
	assert.True(t, errs.Is(err, errs.CodeOtpExpired))
}

func TestVerifyOTPWrongCodeIncrementsErrors(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		OtpHash:       hashOTP(t, devOTP),
		RememberToken: "legit-token",
		Count:         1,
		ErrorCount:    1,
		UpdatedAt:     now.Add(-time.Minute),
	}
	s := newOTPService(otps, newFakeUserStore(), now)

	_, err := s.VerifyOTP(context.Background(), "778001234", "000000", "legit-token", true)
	assert.True(t, errs.Is(err, errs.CodeInvalid))
	assert.Equal(t, 2, otps.rows["778001234"].ErrorCount)
}

func TestVerifyOTPSuccessIssuesVerifiedToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	otps := newFakeOtpStore()
	otps.rows["778001234"] = &models.OtpRequest{
		Phone:         "778001234",
		OtpHash:       hashOTP(t, devOTP),
		RememberToken: "legit-token",
		Count:         3,
		ErrorCount:    2,
		UpdatedAt:     now.Add(-time.Minute),
	}
	s := newOTPService(otps, newFakeUserStore(), now)

	verified, err := s.VerifyOTP(context.Background(), "778001234", devOTP, "legit-token", true)
	require.NoError(t, err)
	require.NotEmpty(t, verified)

	row := otps.rows["778001234"]
	assert.Equal(t, verified, row.VerifiedToken)
	assert.Equal(t, 1, row.Count)
	assert.Equal(t, 0, row.ErrorCount)
}

func TestVerifyOTPWithoutRequest(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s := newOTPService(newFakeOtpStore(), newFakeUserStore(), now)

	_, err := s.VerifyOTP(context.Background(), "778001234", devOTP, "any", true)
	assert.True(t, errs.Is(err, errs.CodeNotFound))
}
