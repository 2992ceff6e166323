package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/user"
)

const userColumns = `id, email, first_name, last_name, password_hash, active, staff, admin, created_at`

const (
	insertUserSQL = `INSERT INTO users (email, first_name, last_name, password_hash, active, staff, admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	insertCartSQL = `INSERT INTO carts (user_id) VALUES ($1)`

	getUserSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	listUsersSQL = `SELECT ` + userColumns + ` FROM users ORDER BY id`

	updateUserSQL = `UPDATE users SET email = $2, first_name = $3, last_name = $4, password_hash = $5
		WHERE id = $1`

	deleteUserSQL = `DELETE FROM users WHERE id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user and its cart in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertUserSQL,
			u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Active, u.Staff, u.Admin,
		).Scan(&u.ID, &u.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailTaken
			}
			return fmt.Errorf("inserting user %q: %w", u.Email, err)
		}
		if _, err := tx.Exec(ctx, insertCartSQL, u.ID); err != nil {
			return fmt.Errorf("creating cart of user %d: %w", u.ID, err)
		}
		return nil
	})
}

// Get returns a user by id.
func (r *UserRepository) Get(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, getUserSQL, id)
}

// GetByEmail returns a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

func (r *UserRepository) getOne(ctx context.Context, sql string, key any) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, key)
	if err != nil {
		return nil, fmt.Errorf("getting user %v: %w", key, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %v: %w", key, err)
	}
	return &u, nil
}

// List returns every user ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// Update writes the profile fields and password hash of u.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.pool.Exec(ctx, updateUserSQL, u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete removes the user. The cart cascades, orders keep a NULL owner.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.Active, &u.Staff, &u.Admin, &u.CreatedAt)
	return u, err
}
