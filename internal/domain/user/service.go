package user

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/validate"
)

// CreateRequest holds the input of a registration.
type CreateRequest struct {
	FirstName            string `json:"first_name" validate:"required,max=50"`
	LastName             string `json:"last_name" validate:"required,max=50"`
	Email                string `json:"email" validate:"required,email,max=254"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
	Staff                bool   `json:"-"`
	Admin                bool   `json:"-"`
}

// UpdateRequest holds a full (PUT) or partial (PATCH) account update. Nil
// fields are left unchanged; a full update requires all of them.
type UpdateRequest struct {
	Partial     bool
	FirstName   *string
	LastName    *string
	Email       *string
	Password    string
	NewPassword *string
}

// Service encapsulates account business rules.
type Service struct {
	users         Repository
	hasher        Hasher
	enforcePolicy bool
}

// Option configures a Service.
type Option func(*Service)

// WithPasswordPolicy toggles CheckPassword on new credentials.
func WithPasswordPolicy(enabled bool) Option {
	return func(s *Service) { s.enforcePolicy = enabled }
}

// NewService creates a user Service.
func NewService(users Repository, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		users:         users,
		hasher:        hasher,
		enforcePolicy: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new active user with an empty cart.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Password != req.PasswordConfirmation {
		return nil, ErrPasswordConfirmationMismatch
	}
	if s.enforcePolicy {
		if err := CheckPassword("password", req.Password); err != nil {
			return nil, err
		}
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		Email:        NormalizeEmail(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Active:       true,
		Staff:        req.Staff || req.Admin,
		Admin:        req.Admin,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return u, nil
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return users, nil
}

// Update changes profile fields after verifying the current password. The
// stored record is untouched when verification fails.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*User, error) {
	if !req.Partial {
		required := []struct {
			field string
			value *string
		}{
			{"first_name", req.FirstName},
			{"last_name", req.LastName},
			{"email", req.Email},
		}
		for _, r := range required {
			if r.value == nil {
				return nil, validate.Field(r.field, "This field is required.")
			}
		}
	}
	if req.Password == "" {
		return nil, validate.Field("password", "This field is required.")
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if err := s.hasher.Compare(u.PasswordHash, req.Password); err != nil {
		return nil, ErrPasswordMismatch
	}

	next := *u
	if req.FirstName != nil {
		next.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		next.LastName = *req.LastName
	}
	if req.Email != nil {
		next.Email = NormalizeEmail(*req.Email)
	}
	if err := validate.Struct(profile{FirstName: next.FirstName, LastName: next.LastName, Email: next.Email}); err != nil {
		return nil, err
	}
	if req.NewPassword != nil {
		if s.enforcePolicy {
			if err := CheckPassword("new_password", *req.NewPassword); err != nil {
				return nil, err
			}
		}
		hash, err := s.hasher.Hash(*req.NewPassword)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		next.PasswordHash = hash
	}

	if err := s.users.Update(ctx, &next); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return &next, nil
}

// Delete removes a user. Their orders remain with no owner.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete user")
	}
	return nil
}

// Authenticate verifies credentials of an active user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "get user")
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil || !u.Active {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

type profile struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=254"`
}
