package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for account operations.
var (
	ErrNotFound                     = errors.New("user not found")
	ErrEmailTaken                   = errors.New("user with this email already exists")
	ErrPasswordMismatch             = errors.New("passwords do not match")
	ErrPasswordConfirmationMismatch = errors.New("password and confirmation do not match")
	ErrInvalidCredentials           = errors.New("invalid credentials")
)

// User is a customer or staff account.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Active       bool
	Staff        bool
	Admin        bool
	CreatedAt    time.Time
}

// Repository defines persistence for users.
type Repository interface {
	// Create stores u together with its empty cart and sets u.ID and
	// u.CreatedAt. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	// Update writes names, email and password hash of u.
	Update(ctx context.Context, u *User) error
	// Delete removes the user and its cart. Orders are kept without an owner.
	Delete(ctx context.Context, id int64) error
}

// NormalizeEmail trims s and lower-cases its domain part.
func NormalizeEmail(s string) string {
	s = strings.TrimSpace(s)
	at := strings.LastIndexByte(s, '@')
	if at < 0 {
		return s
	}
	return s[:at] + strings.ToLower(s[at:])
}
