package service

import (
	"context"
	"time"

	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/repository"
)

// UserStore is the slice of the user repository the auth core depends on.
// Implementations must make each mutation atomic with respect to concurrent
// requests for the same user.
type UserStore interface {
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateRandToken(ctx context.Context, phone, token string) error
	UpdatePassword(ctx context.Context, phone, passwordHash string) error
	RecordLoginFailure(ctx context.Context, phone string, count int, freeze bool, failedAt time.Time) error
	ResetLoginFailures(ctx context.Context, phone string) error
}

// OtpStore is the slice of the OTP repository the lifecycle manager uses.
type OtpStore interface {
	GetByPhone(ctx context.Context, phone string) (*models.OtpRequest, error)
	Create(ctx context.Context, otp *models.OtpRequest) error
	Update(ctx context.Context, phone string, upd repository.OtpUpdate) error
}
