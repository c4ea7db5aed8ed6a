package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/sirupsen/logrus"
)

// TokenService mints, validates and rotates the access/refresh pair. The
// refresh token is persisted on the user row as the rand token; only the
// most recently persisted refresh token is accepted for rotation, which
// makes logout and rotation true invalidations rather than client-side
// cookie deletion.
type TokenService struct {
	users  UserStore
	cfg    *config.JWTConfig
	logger *logrus.Logger
}

type accessClaims struct {
	jwt.RegisteredClaims
}

type refreshClaims struct {
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

func NewTokenService(users UserStore, cfg *config.JWTConfig, logger *logrus.Logger) *TokenService {
	return &TokenService{
		users:  users,
		cfg:    cfg,
		logger: logger,
	}
}

// IssuePair signs a fresh access/refresh pair and persists the refresh
// token as the user's rand token, replacing whatever was stored before.
func (s *TokenService) IssuePair(ctx context.Context, userID int64, phone string) (*models.TokenPair, error) {
	now := time.Now()
	subject := strconv.FormatInt(userID, 10)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, &accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessExpiry)),
		},
	})
	accessToken, err := access.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &refreshClaims{
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshExpiry)),
		},
	})
	refreshToken, err := refresh.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign refresh token")
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.users.UpdateRandToken(ctx, phone, refreshToken); err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessExpiry.Seconds()),
	}, nil
}

// ValidateAccess returns the user id carried by a valid access token. An
// expired-but-correctly-signed token fails with Error_AccessTokenExpired so
// the gate can refresh silently; any structural or signature failure is
// classified as an attack.
func (s *TokenService) ValidateAccess(tokenString string) (int64, error) {
	if tokenString == "" {
		return 0, errs.Unauthenticated("You are not an authenticated user.")
	}

	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.AccessSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, errs.AccessTokenExpired("Access token is expired.")
		}
		return 0, errs.Attack("Access token is invalid.")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errs.Attack("Access token is invalid.")
	}

	return userID, nil
}

// Rotate exchanges a refresh token for a fresh pair. Every failure mode is a
// plain Unauthenticated: a missing or tampered token, a subject that is not
// a user id, a phone mismatch against the user row, and reuse of a token
// that has already been rotated out.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*models.TokenPair, *models.User, error) {
	if refreshToken == "" {
		return nil, nil, errs.Unauthenticated("You are not an authenticated user.")
	}

	claims := &refreshClaims{}
	_, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.RefreshSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, nil, errs.Unauthenticated("You are not an authenticated user.")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, nil, errs.Unauthenticated("You are not an authenticated user.")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.Phone != claims.Phone {
		return nil, nil, errs.Unauthenticated("You are not an authenticated user.")
	}

	if refreshToken != user.RandToken {
		return nil, nil, errs.Unauthenticated("You are not an authenticated user.")
	}

	pair, err := s.IssuePair(ctx, user.ID, user.Phone)
	if err != nil {
		return nil, nil, err
	}

	return pair, user, nil
}

// Invalidate replaces the stored rand token with a random opaque value, so
// no outstanding refresh token matches any longer.
func (s *TokenService) Invalidate(ctx context.Context, phone string) error {
	token, err := generateToken()
	if err != nil {
		return err
	}
	return s.users.UpdateRandToken(ctx, phone, token)
}
