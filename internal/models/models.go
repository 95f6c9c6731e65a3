// Package models defines the core data structures for users and QR codes.
package models

import "errors"

var (
	// ErrNotFound is returned when a user or QR code does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a username is already taken by a concurrent insert.
	ErrConflict = errors.New("conflict")
)

// Owner is the user side of the user/QR code relation as seen from a QR code.
type Owner struct {
	// ID is the identifier of the owning user.
	ID int64 `json:"id"`
	// Username is the unique login of the owning user.
	Username string `json:"username"`
}

// QrCode is a generated QR image together with the text it encodes.
type QrCode struct {
	// ID is assigned by the store on first save.
	ID int64 `json:"id"`
	// Content is the source text, at most MaxContentLength characters.
	Content string `json:"content"`
	// Image is the base64-encoded PNG of Content.
	Image string `json:"qrCodeBase64"`
	// Owners lists the users holding this QR code. Only filled on single-record loads.
	Owners []Owner `json:"owners,omitempty"`
}

// User is an application user owning zero or more QR codes.
type User struct {
	// ID is assigned by the store on first save.
	ID int64 `json:"id"`
	// Username is unique and compared case-sensitively.
	Username string `json:"username"`
	// QrIDs holds the ids of owned QR codes. Only filled on single-record loads.
	QrIDs []int64 `json:"qrIds,omitempty"`
}

const (
	// MaxContentLength is the longest text accepted for a QR code.
	MaxContentLength = 1000
	// MaxUsernameLength is the longest accepted username.
	MaxUsernameLength = 50
)

// Clone returns a deep copy of q so callers can hand it out without sharing slices.
func (q QrCode) Clone() QrCode {
	if q.Owners != nil {
		q.Owners = append(make([]Owner, 0, len(q.Owners)), q.Owners...)
	}
	return q
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	if u.QrIDs != nil {
		u.QrIDs = append(make([]int64, 0, len(u.QrIDs)), u.QrIDs...)
	}
	return u
}

// BulkRequest is a single text/username pair of a bulk generation call.
type BulkRequest struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// BulkResult reports the outcome of one BulkRequest.
// Exactly one of QrCodeBase64 and Error is set.
type BulkResult struct {
	InputText     string `json:"inputText"`
	InputUsername string `json:"inputUsername"`
	QrCodeBase64  string `json:"qrCodeBase64,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BulkSuccess builds a successful BulkResult.
func BulkSuccess(text, username, image string) BulkResult {
	return BulkResult{InputText: text, InputUsername: username, QrCodeBase64: image}
}

// BulkFailure builds a failed BulkResult.
func BulkFailure(text, username, msg string) BulkResult {
	return BulkResult{InputText: text, InputUsername: username, Error: msg}
}
