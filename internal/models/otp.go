package models

import "time"

// OtpRequest is the single per-phone OTP row, reused across days. Count and
// ErrorCount are daily counters; they reset only when the calendar date of
// UpdatedAt differs from today, never mid-day.
type OtpRequest struct {
	Phone         string    `json:"phone" dynamodbav:"phone"`
	OtpHash       string    `json:"-" dynamodbav:"otp_hash"`
	RememberToken string    `json:"-" dynamodbav:"remember_token"`
	VerifiedToken string    `json:"-" dynamodbav:"verified_token,omitempty"`
	Count         int       `json:"count" dynamodbav:"count"`
	ErrorCount    int       `json:"error_count" dynamodbav:"error_count"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (o *OtpRequest) GetPK() string {
	return "OTP#" + o.Phone
}

func (o *OtpRequest) GetSK() string {
	return "METADATA"
}

// SameDay reports whether the row was last touched on the given calendar day.
func (o *OtpRequest) SameDay(now time.Time) bool {
	y1, m1, d1 := o.UpdatedAt.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
