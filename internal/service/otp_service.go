package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// devOTP is issued outside production so integration tests and manual
// testing do not depend on an SMS channel.
const devOTP = "123456"

// OTPService owns the OTP request/verify lifecycle: issuing hashed codes,
// enforcing the per-day request and error budgets, and handing out the
// remember/verified tokens that chain the registration steps together.
type OTPService struct {
	otps   OtpStore
	users  UserStore
	otpCfg *config.OTPConfig
	appCfg *config.AppConfig
	logger *logrus.Logger
	now    func() time.Time
}

// OtpIssue is the result of a successful OTP request. The remember token
// must be echoed back on verification.
type OtpIssue struct {
	Phone         string
	RememberToken string
}

func NewOTPService(otps OtpStore, users UserStore, otpCfg *config.OTPConfig, appCfg *config.AppConfig, logger *logrus.Logger) *OTPService {
	return &OTPService{
		otps:   otps,
		users:  users,
		otpCfg: otpCfg,
		appCfg: appCfg,
		logger: logger,
		now:    time.Now,
	}
}

// RequestOTP issues a fresh code for the phone. forRegistration selects the
// existence check: registration requires the phone to be unclaimed, password
// reset requires a registered user.
func (s *OTPService) RequestOTP(ctx context.Context, phone string, forRegistration bool) (*OtpIssue, error) {
	if err := s.checkUser(ctx, phone, forRegistration); err != nil {
		return nil, err
	}

	code := devOTP
	if s.appCfg.IsProduction() {
		var err error
		code, err = generateOTP()
		if err != nil {
			return nil, err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash OTP: %w", err)
	}

	rememberToken, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	row, err := s.otps.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	hashedStr := string(hashed)

	switch {
	case row == nil:
		if err := s.otps.Create(ctx, &models.OtpRequest{
			Phone:         phone,
			OtpHash:       hashedStr,
			RememberToken: rememberToken,
			Count:         1,
			ErrorCount:    0,
			UpdatedAt:     now,
		}); err != nil {
			return nil, err
		}

	case !row.SameDay(now):
		// Calendar day changed, both daily counters start over.
		one, zero := 1, 0
		if err := s.otps.Update(ctx, phone, repository.OtpUpdate{
			OtpHash:       &hashedStr,
			RememberToken: &rememberToken,
			Count:         &one,
			ErrorCount:    &zero,
			UpdatedAt:     now,
		}); err != nil {
			return nil, err
		}

	case row.ErrorCount >= s.otpCfg.ErrorLimit:
		return nil, errs.OverLimit("OTP is locked for today. Please try again tomorrow.")

	case row.Count >= s.otpCfg.RequestLimit:
		return nil, errs.OverLimit("OTP is allowed to request 5 times per day. Please try again tomorrow.")

	default:
		if err := s.otps.Update(ctx, phone, repository.OtpUpdate{
			OtpHash:        &hashedStr,
			RememberToken:  &rememberToken,
			IncrementCount: true,
			UpdatedAt:      now,
		}); err != nil {
			return nil, err
		}
	}

	if !s.appCfg.IsProduction() {
		s.logger.WithFields(logrus.Fields{
			"phone": phone,
			"otp":   code,
		}).Info("OTP generated (logged outside production only)")
	}

	return &OtpIssue{Phone: phone, RememberToken: rememberToken}, nil
}

// VerifyOTP checks the submitted code and remember token. On success it
// returns the verified token gating the password step. A remember-token
// mismatch is treated as a forged request: the error counter is forced to
// its cap before the error is returned.
func (s *OTPService) VerifyOTP(ctx context.Context, phone, code, rememberToken string, forRegistration bool) (string, error) {
	if err := s.checkUser(ctx, phone, forRegistration); err != nil {
		return "", err
	}

	row, err := s.otps.GetByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", errs.NotFound("OTP has not been requested for this phone number.")
	}

	now := s.now()
	sameDay := row.SameDay(now)

	if sameDay && row.ErrorCount >= s.otpCfg.ErrorLimit {
		return "", errs.OverLimit("OTP is wrong 5 times today. Please try again tomorrow.")
	}

	if row.RememberToken != rememberToken {
		limit := s.otpCfg.ErrorLimit
		if err := s.otps.Update(ctx, phone, repository.OtpUpdate{
			ErrorCount: &limit,
			UpdatedAt:  now,
		}); err != nil {
			return "", err
		}
		return "", errs.Attack("This request may be an attack. The token is invalid.")
	}

	if now.Sub(row.UpdatedAt) > s.otpCfg.VerifyWindow {
		return "", errs.OtpExpired("OTP is expired.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.OtpHash), []byte(code)); err != nil {
		upd := repository.OtpUpdate{UpdatedAt: now}
		if sameDay {
			upd.IncrementError = true
		} else {
			one := 1
			upd.ErrorCount = &one
		}
		if err := s.otps.Update(ctx, phone, upd); err != nil {
			return "", err
		}
		return "", errs.Invalid("OTP is incorrect.")
	}

	verifiedToken, err := generateToken()
	if err != nil {
		return "", err
	}

	one, zero := 1, 0
	if err := s.otps.Update(ctx, phone, repository.OtpUpdate{
		VerifiedToken: &verifiedToken,
		Count:         &one,
		ErrorCount:    &zero,
		UpdatedAt:     now,
	}); err != nil {
		return "", err
	}

	return verifiedToken, nil
}

func (s *OTPService) checkUser(ctx context.Context, phone string, forRegistration bool) error {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}

	if forRegistration && user != nil {
		return errs.AlreadyExist("This phone number is already registered.")
	}
	if !forRegistration && user == nil {
		return errs.NotFound("This phone number has not registered.")
	}

	return nil
}
