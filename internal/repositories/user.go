package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// UserRepository stores each [models.User] as one JSON document keyed by username.
//
// It implements [models.DocumentStore] for users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Find loads the document for username.
func (r *UserRepository) Find(ctx context.Context, username string) (user *models.User, err error) {
	defer func(start time.Time) { metrics.ObserveStore("find_user", start, ignoreNotFound(err)) }(time.Now())

	var document string
	err = r.db.QueryRowContext(ctx, "SELECT document FROM users WHERE username = ?", username).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return decodeUser(document)
}

// Upsert overwrites the whole document for user.Username in a single statement.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) (err error) {
	defer func(start time.Time) { metrics.ObserveStore("upsert_user", start, err) }(time.Now())

	document, err := encodeUser(user)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (username, email, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			email = excluded.email,
			document = excluded.document,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if _, err = r.db.ExecContext(ctx, query, user.Username, user.Email, document, now, now); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// Create inserts a new user and fails with [shared.ErrAlreadyExists] when the username is taken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (err error) {
	defer func(start time.Time) { metrics.ObserveStore("create_user", start, err) }(time.Now())

	document, err := encodeUser(user)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		user.Username, user.Email, document, now, now,
	)
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: user %s", shared.ErrAlreadyExists, user.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// List returns every stored user ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT document FROM users ORDER BY username ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user, err := decodeUser(document)
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

func encodeUser(user *models.User) (string, error) {
	if err := user.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to encode user document: %w", err)
	}
	return string(data), nil
}

func decodeUser(document string) (*models.User, error) {
	var user models.User
	if err := json.Unmarshal([]byte(document), &user); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	if user.Playlists == nil {
		user.Playlists = []models.Playlist{}
	}
	return &user, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}
