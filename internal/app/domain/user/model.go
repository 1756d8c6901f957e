package user

import (
	"errors"
	"time"
)

// Sentinel errors returned by stores and services for user lookups and
// uniqueness constraints. Callers branch with errors.Is.
var (
	ErrNotFound   = errors.New("user not found")
	ErrPhoneInUse = errors.New("phone number already registered")
	ErrEmailInUse = errors.New("email already registered")
)

// User is the owner of a prepaid account and one or more vehicles. Phone and
// email are globally unique.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
