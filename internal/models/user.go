package models

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleAuthor Role = "AUTHOR"
)

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusFreeze Status = "FREEZE"
)

// User is keyed by normalized phone number. RandToken holds the one refresh
// token currently accepted for this user; replacing it invalidates every
// other outstanding refresh token.
type User struct {
	ID              int64     `json:"id" dynamodbav:"id"`
	Phone           string    `json:"phone" dynamodbav:"phone"`
	Password        string    `json:"-" dynamodbav:"password"`
	Role            Role      `json:"role" dynamodbav:"role"`
	Status          Status    `json:"status" dynamodbav:"status"`
	RandToken       string    `json:"-" dynamodbav:"rand_token"`
	ErrorLoginCount int       `json:"-" dynamodbav:"error_login_count"`
	LastFailedLogin time.Time `json:"-" dynamodbav:"last_failed_login,omitempty"`
	Image           string    `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Favorites       []int64   `json:"-" dynamodbav:"favorites,numberset,omitempty"`
	CreatedAt       time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (u *User) GetPK() string {
	return "USER#" + u.Phone
}

func (u *User) GetSK() string {
	return "METADATA"
}

func (u *User) IsFavorite(productID int64) bool {
	for _, id := range u.Favorites {
		if id == productID {
			return true
		}
	}
	return false
}

func UserIDPK(id int64) string {
	return fmt.Sprintf("USERID#%d", id)
}
