// Package service provides the business logic for QR code generation, user
// management and request counting, delegating persistence to a Store and
// keeping the in-memory cache consistent with it.
package service

import (
	"context"

	"github.com/atinyakov/GopherQR/internal/models"
)

// Store defines the persistence operations required by the services.
// Lookups of absent records fail with models.ErrNotFound.
type Store interface {
	// FindUserByUsername loads a user by exact username. QrIDs is not filled.
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	// FindUserByID loads a user together with the ids of its QR codes.
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	// ListUsers returns every user ordered by id.
	ListUsers(ctx context.Context) ([]models.User, error)
	// SaveUser inserts the user when ID is zero and updates it otherwise.
	// A taken username yields models.ErrConflict.
	SaveUser(ctx context.Context, user *models.User) (*models.User, error)
	// DeleteUserByID removes the user and its relation rows.
	DeleteUserByID(ctx context.Context, id int64) error

	// FindQrByID loads a QR code together with its owners.
	FindQrByID(ctx context.Context, id int64) (*models.QrCode, error)
	// SaveQr inserts the QR code when ID is zero and updates it otherwise.
	SaveQr(ctx context.Context, qr *models.QrCode) (*models.QrCode, error)
	// DeleteQrByID removes the QR code row.
	DeleteQrByID(ctx context.Context, id int64) error
	// FindQrCodesByUsername returns the QR codes owned by username, or an
	// empty slice when the user is unknown or owns none.
	FindQrCodesByUsername(ctx context.Context, username string) ([]models.QrCode, error)

	// AttachQr links a QR code to a user. Linking twice is a no-op.
	AttachQr(ctx context.Context, userID, qrID int64) error
	// DetachQr unlinks a QR code from a user.
	DetachQr(ctx context.Context, userID, qrID int64) error

	// InTx runs fn against a Store bound to a single transaction, committing
	// when fn returns nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
