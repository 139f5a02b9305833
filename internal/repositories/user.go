package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
)

var _ models.Repository[*models.User] = (*UserRepository)(nil)

const userColumns = `id, sequence, email, name, api_token, calendar_token, created_at, updated_at, deleted_at`

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with generated ID, sequence and API token (unless one is already set)
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	sequence, err := NextSequence(ctx, r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if user.APIToken() == "" {
		token, err := shared.GenerateToken()
		if err != nil {
			return err
		}
		user.SetAPIToken(token)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO users (id, sequence, email, name, api_token, calendar_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		user.Email(),
		user.Name(),
		user.APIToken(),
		nullString(user.CalendarToken()),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.SetID(id)
	user.SetSequence(sequence)
	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), id)
}

// GetByAPIToken resolves the owner of a bearer token.
func (r *UserRepository) GetByAPIToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty api token", shared.ErrNotFound)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE api_token = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token), "by token")
}

// GetByEmail retrieves a user by email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email), email)
}

// Update modifies the profile fields of an existing user.
//
// The calendar credential is written separately by [UserRepository.UpdateCalendarToken].
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()

	query := `
		UPDATE users
		SET email = ?, name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, user.Email(), user.Name(), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if err := affectedOne(result, "user", user.ID()); err != nil {
		return err
	}

	user.SetUpdatedAt(now)
	return nil
}

// UpdateCalendarToken replaces the stored credential blob; an empty blob clears it.
func (r *UserRepository) UpdateCalendarToken(ctx context.Context, user *models.User, blob string) error {
	now := time.Now().UTC()

	query := `
		UPDATE users
		SET calendar_token = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, nullString(blob), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update calendar token: %w", err)
	}
	if err := affectedOne(result, "user", user.ID()); err != nil {
		return err
	}

	if blob == "" {
		user.ClearCalendarToken()
	} else {
		user.SetCalendarToken(blob)
	}
	user.SetUpdatedAt(now)
	return nil
}

// RotateAPIToken issues a fresh API token for user; the previous one stops authenticating.
func (r *UserRepository) RotateAPIToken(ctx context.Context, user *models.User) (string, error) {
	token, err := shared.GenerateToken()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET api_token = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		token, now, user.ID(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to rotate api token: %w", err)
	}
	if err := affectedOne(result, "user", user.ID()); err != nil {
		return "", err
	}

	user.SetAPIToken(token)
	user.SetUpdatedAt(now)
	return token, nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return affectedOne(result, "user", id)
}

// List retrieves all users matching the given criteria, excluding soft-deleted users
//
// Supported criteria: "email" (string).
func (r *UserRepository) List(ctx context.Context, criteria map[string]any) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

func (r *UserRepository) scanOne(row *sql.Row, key string) (*models.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, key)
	}
	return user, err
}

// scanUser scans a single row into a [models.User]
func scanUser(s scanner) (*models.User, error) {
	var (
		id            string
		sequence      int
		email         string
		name          string
		apiToken      string
		calendarToken sql.NullString
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := s.Scan(&id, &sequence, &email, &name, &apiToken, &calendarToken, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user := models.NewUser(sequence, email, name)
	user.SetID(id)
	user.SetAPIToken(apiToken)
	user.SetCalendarToken(calendarToken.String)
	user.SetCreatedAt(createdAt.UTC())
	user.SetUpdatedAt(updatedAt.UTC())
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}

	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
