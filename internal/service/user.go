package service

import (
	"context"

	"github.com/atinyakov/GopherQR/internal/cache"
	"github.com/atinyakov/GopherQR/internal/models"
	"go.uber.org/zap"
)

// UserService manages users and their user_<id> cache entries.
type UserService struct {
	store Store
	cache *cache.Cache
	log   *zap.Logger
}

// NewUserService constructs a UserService sharing the cache with QrService.
func NewUserService(store Store, c *cache.Cache, log *zap.Logger) *UserService {
	return &UserService{store: store, cache: c, log: log}
}

// CreateUser registers a new username. A taken username yields models.ErrConflict.
func (s *UserService) CreateUser(ctx context.Context, username string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	user, err := s.store.SaveUser(ctx, &models.User{Username: username})
	if err != nil {
		return nil, err
	}
	user.QrIDs = []int64{}
	s.cache.Put(userKey(user.ID), user.Clone())
	return user, nil
}

// GetUserByID returns a user with the ids of its QR codes.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	key := userKey(id)
	cached, err := cache.Get[models.User](s.cache, key)
	if err == nil {
		user := cached.Clone()
		return &user, nil
	}
	heal(s.cache, s.log, key, err)

	version := s.cache.Version(key)
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, notFound("user", id, err)
	}
	s.cache.PutIfVersion(key, user.Clone(), version)
	return user, nil
}

// ListUsers returns all users. The listing is not cached.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// UpdateUser renames a user. Cached lists under both names and the cached
// QR codes naming the user as owner are evicted.
func (s *UserService) UpdateUser(ctx context.Context, id int64, username string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	var (
		oldName string
		updated *models.User
	)
	err := s.store.InTx(ctx, func(tx Store) error {
		user, err := tx.FindUserByID(ctx, id)
		if err != nil {
			return err
		}
		oldName = user.Username
		user.Username = username
		updated, err = tx.SaveUser(ctx, user)
		return err
	})
	if err != nil {
		return nil, notFound("user", id, err)
	}

	s.cache.Put(userKey(id), updated.Clone())
	s.cache.Evict(userListKey(oldName))
	s.cache.Evict(userListKey(username))
	for _, qrID := range updated.QrIDs {
		s.cache.Evict(qrKey(qrID))
	}
	return updated, nil
}

// DeleteUser removes a user and its relation rows. QR codes it owned stay in
// the store until the orphan cleaner collects the ones nobody else owns.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	var deleted *models.User
	err := s.store.InTx(ctx, func(tx Store) error {
		user, err := tx.FindUserByID(ctx, id)
		if err != nil {
			return err
		}
		deleted = user
		return tx.DeleteUserByID(ctx, id)
	})
	if err != nil {
		return notFound("user", id, err)
	}

	s.cache.Evict(userKey(id))
	s.cache.Evict(userListKey(deleted.Username))
	for _, qrID := range deleted.QrIDs {
		s.cache.Evict(qrKey(qrID))
	}
	return nil
}
