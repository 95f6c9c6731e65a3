package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/atinyakov/GopherQR/internal/cache"
	"github.com/atinyakov/GopherQR/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// invalidBulkInput is reported for bulk items with blank text or username.
const invalidBulkInput = "Invalid input text or username"

// maxConflictRetries bounds how often a lost find-or-create race is retried.
const maxConflictRetries = 1

// Encoder renders text into an image.
type Encoder interface {
	Encode(text string) ([]byte, error)
}

// QrService generates, reads, updates and deletes QR codes and keeps the
// qr_<id> and qr_user_<username> cache entries consistent with the store.
type QrService struct {
	store   Store
	encoder Encoder
	cache   *cache.Cache
	log     *zap.Logger
}

// NewQrService constructs a QrService. All arguments must be non-nil.
func NewQrService(store Store, encoder Encoder, c *cache.Cache, log *zap.Logger) *QrService {
	return &QrService{store: store, encoder: encoder, cache: c, log: log}
}

// GenerateAndSaveQrCode encodes text, stores it as a new QR code owned by
// username (creating the user on first use) and returns the base64 image.
func (s *QrService) GenerateAndSaveQrCode(ctx context.Context, text, username string) (string, error) {
	if err := validateContent(text); err != nil {
		return "", err
	}
	if err := validateUsername(username); err != nil {
		return "", err
	}

	qr, err := s.generate(ctx, text, username)
	if err != nil {
		return "", err
	}
	return qr.Image, nil
}

// GenerateBulkQrCodes runs GenerateAndSaveQrCode for every request and
// reports each outcome in input order. It never fails as a whole: every
// item is committed or rolled back on its own.
func (s *QrService) GenerateBulkQrCodes(ctx context.Context, requests []models.BulkRequest) []models.BulkResult {
	results := make([]models.BulkResult, 0, len(requests))
	if len(requests) == 0 {
		return results
	}

	batchID := uuid.NewString()
	failed := 0
	for i, req := range requests {
		res := s.generateItem(ctx, req)
		if res.Error != "" {
			failed++
			s.log.Info("bulk item failed",
				zap.String("batch", batchID),
				zap.Int("index", i),
				zap.String("username", req.Username),
				zap.String("error", res.Error),
			)
		}
		results = append(results, res)
	}

	s.log.Info("bulk generation finished",
		zap.String("batch", batchID),
		zap.Int("total", len(requests)),
		zap.Int("failed", failed),
	)
	return results
}

func (s *QrService) generateItem(ctx context.Context, req models.BulkRequest) (res models.BulkResult) {
	if blank(req.Text) || blank(req.Username) {
		return models.BulkFailure(req.Text, req.Username, invalidBulkInput)
	}

	defer func() {
		if r := recover(); r != nil {
			res = models.BulkFailure(req.Text, req.Username, fmt.Sprintf("Processing failed: %v", r))
		}
	}()

	image, err := s.GenerateAndSaveQrCode(ctx, req.Text, req.Username)
	if err != nil {
		return models.BulkFailure(req.Text, req.Username, "Processing failed: "+err.Error())
	}
	return models.BulkSuccess(req.Text, req.Username, image)
}

// generate runs find-or-create user, insert and attach in one transaction.
// A lost race on the username is retried once with a fresh transaction.
func (s *QrService) generate(ctx context.Context, text, username string) (*models.QrCode, error) {
	image, err := s.encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	var created *models.QrCode
	for attempt := 0; ; attempt++ {
		err = s.store.InTx(ctx, func(tx Store) error {
			user, err := findOrCreateUser(ctx, tx, username)
			if err != nil {
				return err
			}
			qr, err := tx.SaveQr(ctx, &models.QrCode{Content: text, Image: image})
			if err != nil {
				return err
			}
			if err := tx.AttachQr(ctx, user.ID, qr.ID); err != nil {
				return err
			}
			qr.Owners = []models.Owner{{ID: user.ID, Username: user.Username}}
			created = qr
			return nil
		})
		if !errors.Is(err, models.ErrConflict) || attempt >= maxConflictRetries {
			break
		}
		s.log.Debug("username taken concurrently, retrying", zap.String("username", username))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	s.cache.Evict(userListKey(username))
	s.cache.Evict(userKey(created.Owners[0].ID))
	return created, nil
}

func findOrCreateUser(ctx context.Context, tx Store, username string) (*models.User, error) {
	user, err := tx.FindUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return tx.SaveUser(ctx, &models.User{Username: username})
}

func (s *QrService) encode(text string) (string, error) {
	png, err := s.encoder.Encode(text)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// GetQrByID returns the QR code with the given id, serving it from the
// cache when possible.
func (s *QrService) GetQrByID(ctx context.Context, id int64) (*models.QrCode, error) {
	key := qrKey(id)
	cached, err := cache.Get[models.QrCode](s.cache, key)
	if err == nil {
		qr := cached.Clone()
		return &qr, nil
	}
	heal(s.cache, s.log, key, err)

	// a write committed during the load must win over what was loaded
	version := s.cache.Version(key)
	qr, err := s.store.FindQrByID(ctx, id)
	if err != nil {
		return nil, notFound("qr code", id, err)
	}
	s.cache.PutIfVersion(key, qr.Clone(), version)
	return qr, nil
}

// GetQrCodesByUsername returns the QR codes owned by username. Empty results
// are cached as well.
func (s *QrService) GetQrCodesByUsername(ctx context.Context, username string) ([]models.QrCode, error) {
	if blank(username) {
		return nil, fmt.Errorf("%w: username must not be empty", ErrInvalidArgument)
	}

	key := userListKey(username)
	cached, err := cache.GetList[models.QrCode](s.cache, key)
	if err == nil {
		return cached, nil
	}
	heal(s.cache, s.log, key, err)

	version := s.cache.Version(key)
	codes, err := s.store.FindQrCodesByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	cache.PutListIfVersion(s.cache, key, codes, version)
	return codes, nil
}

// UpdateQr replaces the content of a QR code and re-encodes its image. The
// fresh value is written to qr_<id> and the lists of all owners are evicted.
func (s *QrService) UpdateQr(ctx context.Context, id int64, newContent string) (*models.QrCode, error) {
	if err := validateContent(newContent); err != nil {
		return nil, err
	}

	var updated *models.QrCode
	err := s.store.InTx(ctx, func(tx Store) error {
		qr, err := tx.FindQrByID(ctx, id)
		if err != nil {
			return err
		}
		image, err := s.encode(newContent)
		if err != nil {
			return err
		}
		qr.Content = newContent
		qr.Image = image
		updated, err = tx.SaveQr(ctx, qr)
		return err
	})
	if err != nil {
		return nil, notFound("qr code", id, err)
	}

	s.cache.Put(qrKey(id), updated.Clone())
	for _, owner := range updated.Owners {
		s.cache.Evict(userListKey(owner.Username))
	}
	return updated, nil
}

// DeleteQr detaches a QR code from every owner and deletes it.
func (s *QrService) DeleteQr(ctx context.Context, id int64) error {
	var owners []models.Owner
	err := s.store.InTx(ctx, func(tx Store) error {
		qr, err := tx.FindQrByID(ctx, id)
		if err != nil {
			return err
		}
		for _, owner := range qr.Owners {
			if err := tx.DetachQr(ctx, owner.ID, id); err != nil {
				return err
			}
		}
		owners = qr.Owners
		return tx.DeleteQrByID(ctx, id)
	})
	if err != nil {
		return notFound("qr code", id, err)
	}

	for _, owner := range owners {
		s.cache.Evict(userListKey(owner.Username))
		s.cache.Evict(userKey(owner.ID))
	}
	s.cache.Evict(qrKey(id))
	return nil
}

// EvictQr drops the cached snapshots of QR codes removed outside the service.
func (s *QrService) EvictQr(ids ...int64) {
	for _, id := range ids {
		s.cache.Evict(qrKey(id))
	}
}

// heal evicts an entry whose stored shape does not match the expected one.
func heal(c *cache.Cache, log *zap.Logger, key string, err error) {
	if errors.Is(err, cache.ErrTypeMismatch) {
		log.Warn("evicting mismatched cache entry", zap.String("key", key), zap.Error(err))
		c.Evict(key)
	}
}
