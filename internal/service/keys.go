package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/GopherQR/internal/models"
)

var (
	// ErrInvalidArgument is returned for empty or oversized input. Nothing is read or written.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrGenerationFailed wraps any failure of the encode/persist/associate sequence.
	ErrGenerationFailed = errors.New("generation failed")
)

// Cache key families. qr_<id> never collides with qr_user_<name> because ids are numeric.
const (
	qrCachePrefix     = "qr_"
	qrUserCachePrefix = "qr_user_"
	userCachePrefix   = "user_"
)

func qrKey(id int64) string {
	return qrCachePrefix + strconv.FormatInt(id, 10)
}

func userListKey(username string) string {
	return qrUserCachePrefix + username
}

func userKey(id int64) string {
	return userCachePrefix + strconv.FormatInt(id, 10)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validateContent(text string) error {
	if blank(text) {
		return fmt.Errorf("%w: text must not be empty", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(text) > models.MaxContentLength {
		return fmt.Errorf("%w: text longer than %d characters", ErrInvalidArgument, models.MaxContentLength)
	}
	return nil
}

func validateUsername(username string) error {
	if blank(username) {
		return fmt.Errorf("%w: username must not be empty", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(username) > models.MaxUsernameLength {
		return fmt.Errorf("%w: username longer than %d characters", ErrInvalidArgument, models.MaxUsernameLength)
	}
	return nil
}

func notFound(kind string, id int64, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, models.ErrNotFound)
	}
	return err
}
