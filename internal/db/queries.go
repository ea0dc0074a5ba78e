package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract the auth core depends on. Only
// find-one-by-email and insert-one are required; no update or delete.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// Queries provides database operations
type Queries struct {
	db *sql.DB
}

// NewQueries creates a new Queries instance
func NewQueries(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// GetDB returns the underlying database connection
func (q *Queries) GetDB() *sql.DB {
	return q.db
}

// CreateUser inserts a new user. The storage ID and the server-generated
// UUID are distinct identifiers; both are filled here if unset.
func (q *Queries) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.UUID == "" {
		user.UUID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, uuid, email, user_name, phone_number, country_code, name, display_name, role, is_active, is_verified, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := q.db.ExecContext(ctx, query,
		user.ID, user.UUID, user.Email, user.UserName, user.PhoneNumber, user.CountryCode,
		user.Name, user.DisplayName, string(user.Role), user.IsActive, user.IsVerified,
		user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

// GetUserByEmail gets a user by email
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	var role string
	var name sql.NullString

	query := `
		SELECT id, uuid, email, user_name, phone_number, country_code, name, display_name, role, is_active, is_verified, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	err := q.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.UUID, &user.Email, &user.UserName, &user.PhoneNumber, &user.CountryCode,
		&name, &user.DisplayName, &role, &user.IsActive, &user.IsVerified,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if name.Valid {
		user.Name = &name.String
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.Role = parsed

	return &user, nil
}
