package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/efisher/whoopsync/internal/domain/model"
	"github.com/efisher/whoopsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts a user keyed on the vendor user ID, updating the email if
// the user already exists. Returns the stored row including the local ID.
func (r *UserRepo) Upsert(ctx context.Context, user model.User) (*model.User, error) {
	const query = `
		INSERT INTO users (whoop_user_id, email)
		VALUES (?, ?)
		ON CONFLICT(whoop_user_id) DO UPDATE SET
			email = excluded.email
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, user.WhoopUserID, user.Email); err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", user.WhoopUserID, err)
	}

	stored, err := r.GetByWhoopID(ctx, user.WhoopUserID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("user %s missing after upsert", user.WhoopUserID)
	}

	return stored, nil
}

// GetByWhoopID retrieves a user by vendor user ID. Returns (nil, nil) if
// the user is not registered.
func (r *UserRepo) GetByWhoopID(ctx context.Context, whoopUserID string) (*model.User, error) {
	const query = `
		SELECT id, whoop_user_id, email, created_at
		FROM users
		WHERE whoop_user_id = ?
	`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, whoopUserID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", whoopUserID, err)
	}

	return user, nil
}

// ListAll returns every registered user ordered by local ID.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	const query = `
		SELECT id, whoop_user_id, email, created_at
		FROM users
		ORDER BY id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var createdAt string

	if err := s.Scan(&user.ID, &user.WhoopUserID, &user.Email, &createdAt); err != nil {
		return nil, err
	}

	var err error
	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &user, nil
}
