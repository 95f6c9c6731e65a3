package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GopherQR/internal/models"
)

// FindUserByUsername loads a user by exact, case-sensitive username.
func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.q.QueryRowContext(ctx,
		`SELECT id, username FROM app_users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindUserByUsername: %w", err)
	}
	return &u, nil
}

// FindUserByID loads a user and the ids of the QR codes it owns.
func (s *PostgresStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.q.QueryRowContext(ctx,
		`SELECT id, username FROM app_users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindUserByID: %w", err)
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT qr_id FROM user_qr WHERE user_id = $1 ORDER BY qr_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("FindUserByID qr ids: %w", err)
	}
	defer rows.Close()

	u.QrIDs = []int64{}
	for rows.Next() {
		var qrID int64
		if err := rows.Scan(&qrID); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		u.QrIDs = append(u.QrIDs, qrID)
	}
	return &u, rows.Err()
}

// ListUsers returns all users ordered by id.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, username FROM app_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveUser inserts a new user when user.ID is zero, otherwise renames the
// existing one. Losing a race on the unique username yields models.ErrConflict.
func (s *PostgresStore) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	saved := user.Clone()

	if saved.ID == 0 {
		err := s.q.QueryRowContext(ctx,
			`INSERT INTO app_users (username) VALUES ($1) ON CONFLICT (username) DO NOTHING RETURNING id`,
			saved.Username,
		).Scan(&saved.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("username %q: %w", saved.Username, models.ErrConflict)
		}
		if err != nil {
			return nil, fmt.Errorf("insert user: %w", err)
		}
		return &saved, nil
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE app_users SET username = $1 WHERE id = $2`,
		saved.Username, saved.ID,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("username %q: %w", saved.Username, models.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteUserByID removes a user. Its relation rows are removed by cascade.
func (s *PostgresStore) DeleteUserByID(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM app_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res)
}
