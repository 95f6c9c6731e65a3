package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GopherQR/internal/models"
)

// FindQrByID loads a QR code together with the users owning it.
func (s *PostgresStore) FindQrByID(ctx context.Context, id int64) (*models.QrCode, error) {
	var qr models.QrCode
	err := s.q.QueryRowContext(ctx,
		`SELECT id, content, qr_code_base64 FROM qr_codes WHERE id = $1`,
		id,
	).Scan(&qr.ID, &qr.Content, &qr.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindQrByID: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT u.id, u.username FROM app_users u
		JOIN user_qr uq ON uq.user_id = u.id
		WHERE uq.qr_id = $1 ORDER BY u.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("FindQrByID owners: %w", err)
	}
	defer rows.Close()

	qr.Owners = []models.Owner{}
	for rows.Next() {
		var o models.Owner
		if err := rows.Scan(&o.ID, &o.Username); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		qr.Owners = append(qr.Owners, o)
	}
	return &qr, rows.Err()
}

// SaveQr inserts a new QR code when qr.ID is zero, otherwise overwrites the
// content and image of the existing row. Owners are not touched.
func (s *PostgresStore) SaveQr(ctx context.Context, qr *models.QrCode) (*models.QrCode, error) {
	saved := qr.Clone()

	if saved.ID == 0 {
		err := s.q.QueryRowContext(ctx,
			`INSERT INTO qr_codes (content, qr_code_base64) VALUES ($1, $2) RETURNING id`,
			saved.Content, saved.Image,
		).Scan(&saved.ID)
		if err != nil {
			return nil, fmt.Errorf("insert qr: %w", err)
		}
		return &saved, nil
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE qr_codes SET content = $1, qr_code_base64 = $2 WHERE id = $3`,
		saved.Content, saved.Image, saved.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update qr: %w", err)
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteQrByID removes a QR code row.
func (s *PostgresStore) DeleteQrByID(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM qr_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete qr: %w", err)
	}
	return expectOne(res)
}

// FindQrCodesByUsername returns the QR codes owned by username ordered by id.
// Owners of the returned codes are not loaded.
func (s *PostgresStore) FindQrCodesByUsername(ctx context.Context, username string) ([]models.QrCode, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT q.id, q.content, q.qr_code_base64 FROM qr_codes q
		JOIN user_qr uq ON uq.qr_id = q.id
		JOIN app_users u ON u.id = uq.user_id
		WHERE u.username = $1 ORDER BY q.id
	`, username)
	if err != nil {
		return nil, fmt.Errorf("FindQrCodesByUsername: %w", err)
	}
	defer rows.Close()

	codes := []models.QrCode{}
	for rows.Next() {
		var qr models.QrCode
		if err := rows.Scan(&qr.ID, &qr.Content, &qr.Image); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		codes = append(codes, qr)
	}
	return codes, rows.Err()
}

// AttachQr links a QR code to a user.
func (s *PostgresStore) AttachQr(ctx context.Context, userID, qrID int64) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO user_qr (user_id, qr_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, qrID,
	)
	if err != nil {
		return fmt.Errorf("attach qr: %w", err)
	}
	return nil
}

// DetachQr unlinks a QR code from a user.
func (s *PostgresStore) DetachQr(ctx context.Context, userID, qrID int64) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM user_qr WHERE user_id = $1 AND qr_id = $2`,
		userID, qrID,
	)
	if err != nil {
		return fmt.Errorf("detach qr: %w", err)
	}
	return nil
}
