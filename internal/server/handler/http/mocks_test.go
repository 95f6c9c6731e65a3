package http

import (
	"context"
	"sync/atomic"

	"github.com/atinyakov/GopherQR/internal/models"
)

type mockQrService struct {
	GenerateFunc func(ctx context.Context, text, username string) (string, error)
	BulkFunc     func(ctx context.Context, requests []models.BulkRequest) []models.BulkResult
	ByUserFunc   func(ctx context.Context, username string) ([]models.QrCode, error)
	GetFunc      func(ctx context.Context, id int64) (*models.QrCode, error)
	UpdateFunc   func(ctx context.Context, id int64, content string) (*models.QrCode, error)
	DeleteFunc   func(ctx context.Context, id int64) error
}

func (m *mockQrService) GenerateAndSaveQrCode(ctx context.Context, text, username string) (string, error) {
	return m.GenerateFunc(ctx, text, username)
}

func (m *mockQrService) GenerateBulkQrCodes(ctx context.Context, requests []models.BulkRequest) []models.BulkResult {
	return m.BulkFunc(ctx, requests)
}

func (m *mockQrService) GetQrCodesByUsername(ctx context.Context, username string) ([]models.QrCode, error) {
	return m.ByUserFunc(ctx, username)
}

func (m *mockQrService) GetQrByID(ctx context.Context, id int64) (*models.QrCode, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockQrService) UpdateQr(ctx context.Context, id int64, content string) (*models.QrCode, error) {
	return m.UpdateFunc(ctx, id, content)
}

func (m *mockQrService) DeleteQr(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

type mockUserService struct {
	CreateFunc func(ctx context.Context, username string) (*models.User, error)
	GetFunc    func(ctx context.Context, id int64) (*models.User, error)
	ListFunc   func(ctx context.Context) ([]models.User, error)
	UpdateFunc func(ctx context.Context, id int64, username string) (*models.User, error)
	DeleteFunc func(ctx context.Context, id int64) error
}

func (m *mockUserService) CreateUser(ctx context.Context, username string) (*models.User, error) {
	return m.CreateFunc(ctx, username)
}

func (m *mockUserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.ListFunc(ctx)
}

func (m *mockUserService) UpdateUser(ctx context.Context, id int64, username string) (*models.User, error) {
	return m.UpdateFunc(ctx, id, username)
}

func (m *mockUserService) DeleteUser(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

type fakeCounter struct{ n atomic.Int64 }

func (c *fakeCounter) Increment()   { c.n.Add(1) }
func (c *fakeCounter) Count() int64 { return c.n.Load() }
func (c *fakeCounter) Reset()       { c.n.Store(0) }
