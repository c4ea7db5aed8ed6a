package service

import (
	"context"
	"io"
	"time"

	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/repository"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeUserStore struct {
	byPhone map[string]*models.User
	nextID  int64

	getErr error
}

var _ UserStore = (*fakeUserStore)(nil)

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byPhone: map[string]*models.User{}}
}

func (f *fakeUserStore) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byPhone[phone]
	if !ok {
		return nil, nil
	}
	cpy := *u
	return &cpy, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range f.byPhone {
		if u.ID == id {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if _, exists := f.byPhone[user.Phone]; exists {
		return errs.AlreadyExist("This phone number is already registered.")
	}
	f.nextID++
	user.ID = f.nextID
	cpy := *user
	f.byPhone[user.Phone] = &cpy
	return nil
}

func (f *fakeUserStore) UpdateRandToken(_ context.Context, phone, token string) error {
	u, ok := f.byPhone[phone]
	if !ok {
		return errs.NotFound("This phone number has not registered.")
	}
	u.RandToken = token
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, phone, passwordHash string) error {
	u, ok := f.byPhone[phone]
	if !ok {
		return errs.NotFound("This phone number has not registered.")
	}
	u.Password = passwordHash
	u.ErrorLoginCount = 0
	return nil
}

func (f *fakeUserStore) RecordLoginFailure(_ context.Context, phone string, count int, freeze bool, failedAt time.Time) error {
	u, ok := f.byPhone[phone]
	if !ok {
		return errs.NotFound("This phone number has not registered.")
	}
	u.ErrorLoginCount = count
	u.LastFailedLogin = failedAt
	if freeze {
		u.Status = models.StatusFreeze
	}
	return nil
}

func (f *fakeUserStore) ResetLoginFailures(_ context.Context, phone string) error {
	u, ok := f.byPhone[phone]
	if !ok {
		return errs.NotFound("This phone number has not registered.")
	}
	u.ErrorLoginCount = 0
	return nil
}

type fakeOtpStore struct {
	rows map[string]*models.OtpRequest
}

var _ OtpStore = (*fakeOtpStore)(nil)

func newFakeOtpStore() *fakeOtpStore {
	return &fakeOtpStore{rows: map[string]*models.OtpRequest{}}
}

func (f *fakeOtpStore) GetByPhone(_ context.Context, phone string) (*models.OtpRequest, error) {
	row, ok := f.rows[phone]
	if !ok {
		return nil, nil
	}
	cpy := *row
	return &cpy, nil
}

func (f *fakeOtpStore) Create(_ context.Context, otp *models.OtpRequest) error {
	cpy := *otp
	f.rows[otp.Phone] = &cpy
	return nil
}

func (f *fakeOtpStore) Update(_ context.Context, phone string, upd repository.OtpUpdate) error {
	row, ok := f.rows[phone]
	if !ok {
		return errs.NotFound("OTP has not been requested for this phone number.")
	}
	if upd.OtpHash != nil {
		row.OtpHash = *upd.OtpHash
	}
	if upd.RememberToken != nil {
		row.RememberToken = *upd.RememberToken
	}
	if upd.VerifiedToken != nil {
		row.VerifiedToken = *upd.VerifiedToken
	}
	switch {
	case upd.IncrementCount:
		row.Count++
	case upd.Count != nil:
		row.Count = *upd.Count
	}
	switch {
	case upd.IncrementError:
		row.ErrorCount++
	case upd.ErrorCount != nil:
		row.ErrorCount = *upd.ErrorCount
	}
	row.UpdatedAt = upd.UpdatedAt
	return nil
}
