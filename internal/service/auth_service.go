package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService drives the password steps of registration and reset, login
// with the lockout policy, and logout.
type AuthService struct {
	users  UserStore
	otps   OtpStore
	tokens *TokenService
	otpCfg *config.OTPConfig
	logger *logrus.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, otps OtpStore, tokens *TokenService, otpCfg *config.OTPConfig, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:  users,
		otps:   otps,
		tokens: tokens,
		otpCfg: otpCfg,
		logger: logger,
		now:    time.Now,
	}
}

// ConfirmPassword completes registration: the verified token from the OTP
// step must match and still be inside its window, then the user row is
// created and a session issued.
func (s *AuthService) ConfirmPassword(ctx context.Context, phone, password, verifiedToken string) (*models.User, *models.TokenPair, error) {
	existing, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, errs.AlreadyExist("This phone number is already registered.")
	}

	if err := s.checkVerifiedToken(ctx, phone, verifiedToken, s.otpCfg.ConfirmWindow); err != nil {
		return nil, nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Phone:    phone,
		Password: string(hashed),
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID, phone)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")
	return user, pair, nil
}

// Login authenticates by phone and password. A frozen account is rejected
// before the password is compared, so the response does not reveal whether
// the password would have matched. Three failed attempts on the same
// calendar day freeze the account.
func (s *AuthService) Login(ctx context.Context, phone, password string) (*models.User, *models.TokenPair, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, errs.Unauthenticated("This phone number has not registered.")
	}

	if user.Status == models.StatusFreeze {
		return nil, nil, errs.AccountFreeze("Your account is temporarily locked. Please contact us.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if err := s.recordFailure(ctx, user); err != nil {
			return nil, nil, err
		}
		return nil, nil, errs.New(errs.CodeInvalid, "Password is incorrect.", http.StatusUnauthorized)
	}

	if err := s.users.ResetLoginFailures(ctx, phone); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID, phone)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// Logout invalidates the current session server side.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errs.Unauthenticated("You are not an authenticated user.")
	}

	return s.tokens.Invalidate(ctx, user.Phone)
}

// ResetPassword completes the forget-password flow. Same shape as
// ConfirmPassword, but the user must already exist and the verified token
// window is shorter.
func (s *AuthService) ResetPassword(ctx context.Context, phone, password, verifiedToken string) (*models.User, *models.TokenPair, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, errs.NotFound("This phone number has not registered.")
	}

	if err := s.checkVerifiedToken(ctx, phone, verifiedToken, s.otpCfg.ResetWindow); err != nil {
		return nil, nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, phone, string(hashed)); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID, phone)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("Password reset")
	return user, pair, nil
}

func (s *AuthService) checkVerifiedToken(ctx context.Context, phone, verifiedToken string, window time.Duration) error {
	row, err := s.otps.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if row == nil {
		return errs.NotFound("OTP has not been requested for this phone number.")
	}

	now := s.now()
	if row.SameDay(now) && row.ErrorCount >= s.otpCfg.ErrorLimit {
		return errs.OverLimit("This request is locked for today. Please try again tomorrow.")
	}

	if row.VerifiedToken == "" || row.VerifiedToken != verifiedToken {
		limit := s.otpCfg.ErrorLimit
		if err := s.otps.Update(ctx, phone, repository.OtpUpdate{
			ErrorCount: &limit,
			UpdatedAt:  now,
		}); err != nil {
			return err
		}
		return errs.Attack("This request may be an attack. The token is invalid.")
	}

	if now.Sub(row.UpdatedAt) > window {
		return errs.RequestExpired("Your request is expired. Please try again.")
	}

	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, user *models.User) error {
	now := s.now()

	y1, m1, d1 := user.LastFailedLogin.Date()
	y2, m2, d2 := now.Date()
	sameDay := y1 == y2 && m1 == m2 && d1 == d2

	switch {
	case !sameDay:
		return s.users.RecordLoginFailure(ctx, user.Phone, 1, false, now)
	case user.ErrorLoginCount >= 2:
		s.logger.WithField("user_id", user.ID).Warn("Account frozen after repeated failed logins")
		return s.users.RecordLoginFailure(ctx, user.Phone, user.ErrorLoginCount+1, true, now)
	default:
		return s.users.RecordLoginFailure(ctx, user.Phone, user.ErrorLoginCount+1, false, now)
	}
}
