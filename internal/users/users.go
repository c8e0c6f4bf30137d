package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/auth"
)

var (
	// ErrEmailTaken is returned when registration hits an existing identity.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// InsertUser registers a new account. The email is case-normalized and the
// password stored only as a bcrypt hash. Role defaults to customer.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	email := NormalizeEmail(nu.Email)
	role := nu.Role
	if role == "" {
		role = auth.RoleCustomer
	}
	if !auth.ValidRole(role) {
		return User{}, fmt.Errorf("unknown role %q", role)
	}

	var exists bool
	err := c.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  nu.Name,
		Role:  role,
	}
	query := `
		INSERT INTO users (id, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err = c.db.QueryRowContext(ctx, query, u.ID, u.Email, string(hash), u.Name, u.Role).Scan(&u.CreatedAt)
	if err != nil {
		// Two registrations can race past the existence check; the loser
		// hits the unique constraint and is still a duplicate, not a
		// server error.
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// isUniqueViolation reports whether err is the Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Authenticate verifies email+password and returns the account on success.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := c.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (c *Conf) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	query := `
		SELECT id, email, password_hash, name, role, created_at
		FROM users
		WHERE email = $1
	`
	err := c.db.QueryRowContext(ctx, query, NormalizeEmail(email)).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// NormalizeEmail lower-cases and trims an identity so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
