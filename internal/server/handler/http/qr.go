// Package http provides the HTTP handlers and routing of the QR code API.
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/GopherQR/internal/models"
)

// emptyBulkRequest is reported when a bulk call carries no items.
const emptyBulkRequest = "Request body or list of requests is empty"

// QrService defines the QR code operations required by QrHandler.
type QrService interface {
	// GenerateAndSaveQrCode stores a new QR code for username and returns its base64 image.
	GenerateAndSaveQrCode(ctx context.Context, text, username string) (string, error)
	// GenerateBulkQrCodes processes every request independently.
	GenerateBulkQrCodes(ctx context.Context, requests []models.BulkRequest) []models.BulkResult
	// GetQrCodesByUsername lists the QR codes owned by username.
	GetQrCodesByUsername(ctx context.Context, username string) ([]models.QrCode, error)
	// GetQrByID loads a single QR code.
	GetQrByID(ctx context.Context, id int64) (*models.QrCode, error)
	// UpdateQr replaces the content of a QR code.
	UpdateQr(ctx context.Context, id int64, content string) (*models.QrCode, error)
	// DeleteQr removes a QR code.
	DeleteQr(ctx context.Context, id int64) error
}

// Counter counts API requests.
type Counter interface {
	Increment()
	Count() int64
	Reset()
}

// QrHandler handles the /api/qr endpoints.
type QrHandler struct {
	QrService QrService
	Counter   Counter
}

// QrResponse is the body of a successful generate call.
type QrResponse struct {
	QrCodeBase64 string `json:"qrCodeBase64"`
}

// BulkQrRequest is the body of a bulk generate call.
type BulkQrRequest struct {
	Requests []models.BulkRequest `json:"requests" validate:"required,min=1"`
}

// UpdateQrRequest is the body of an update call.
type UpdateQrRequest struct {
	Content string `json:"content" validate:"required"`
}

// Generate handles GET /api/qr?text=&username=.
func (h *QrHandler) Generate(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	username := r.URL.Query().Get("username")
	if blank(text) || blank(username) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	image, err := h.QrService.GenerateAndSaveQrCode(r.Context(), text, username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QrResponse{QrCodeBase64: image})
}

// Bulk handles POST /api/qr/bulk. Item failures are reported per item with
// status 200; only a missing or empty list is rejected.
func (h *QrHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkQrRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, []models.BulkResult{models.BulkFailure("", "", emptyBulkRequest)})
		return
	}

	writeJSON(w, http.StatusOK, h.QrService.GenerateBulkQrCodes(r.Context(), req.Requests))
}

// ByUser handles GET /api/qr/by-user?username=.
func (h *QrHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if blank(username) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	codes, err := h.QrService.GetQrCodesByUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

// Get handles GET /api/qr/{id}.
func (h *QrHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	qr, err := h.QrService.GetQrByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

// Update handles PUT /api/qr/{id}.
func (h *QrHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req UpdateQrRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	qr, err := h.QrService.UpdateQr(r.Context(), id, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

// Delete handles DELETE /api/qr/{id}.
func (h *QrHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.QrService.DeleteQr(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestCount handles GET /api/qr/request-count.
func (h *QrHandler) RequestCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Counter.Count())
}

// ResetCount handles POST /api/qr/reset-count.
func (h *QrHandler) ResetCount(w http.ResponseWriter, r *http.Request) {
	h.Counter.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
