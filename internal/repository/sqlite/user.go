package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/tahsin/medistock/internal/apperror"
	"github.com/tahsin/medistock/internal/model"
	"github.com/tahsin/medistock/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository over the shared pool.
type UserStore struct {
	conn *sql.DB
}

// NewUserStore creates a UserStore backed by db.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{conn: db.conn}
}

// FindByEmail looks a user up by the reconciliation key.
// Returns apperror.ErrNotFound if no user has that email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT id, name, email, provider, provider_key, created_on, last_login
		 FROM users WHERE email = ?`, email,
	), email)
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT id, name, email, provider, provider_key, created_on, last_login
		 FROM users WHERE id = ?`, id,
	), id)
}

// Insert creates a new user row, assigning an internal ID if the caller has
// not set one. Timestamps are the caller's responsibility — the reconciler
// sets created_on and last_login together so they are equal on first login.
//
// A duplicate email surfaces as apperror.ErrConflict; the single INSERT
// against the UNIQUE constraint is what makes the create-or-update race safe
// without an explicit transaction.
func (s *UserStore) Insert(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = xid.New().String()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, provider, provider_key, created_on, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.Provider,
		user.ProviderKey,
		user.CreatedOn,
		user.LastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: inserting user: %w", apperror.Conflict("user", user.Email))
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing user. created_on is
// deliberately absent from the SET list — it is written once, at insert.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, provider = ?, provider_key = ?, last_login = ?
		 WHERE id = ?`,
		user.Name,
		user.Provider,
		user.ProviderKey,
		user.LastLogin,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: updating user: %w", apperror.NotFound("user", user.ID))
	}
	return nil
}

// List returns all users, newest account first.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, email, provider, provider_key, created_on, last_login
		 FROM users ORDER BY created_on DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Provider, &u.ProviderKey, &u.CreatedOn, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserStore) scanUser(row *sql.Row, key string) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Provider, &u.ProviderKey, &u.CreatedOn, &u.LastLogin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}
	return &u, nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE-constraint
// failure. modernc.org/sqlite exposes it only through the error text, e.g.
// "constraint failed: UNIQUE constraint failed: users.email (2067)".
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
