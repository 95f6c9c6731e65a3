// Package client implements the HTTP client used by the command-line tool.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/atinyakov/GopherQR/internal/models"
)

// New returns an http.Client with the timeout used by the CLI.
func New() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// Generate requests a new QR code for text owned by username and returns
// its base64 PNG.
func Generate(client *http.Client, baseURL, text, username string) (string, error) {
	q := url.Values{"text": {text}, "username": {username}}
	var result struct {
		QrCodeBase64 string `json:"qrCodeBase64"`
	}
	if err := call(client, http.MethodGet, baseURL+"/api/qr?"+q.Encode(), nil, &result); err != nil {
		return "", err
	}
	return result.QrCodeBase64, nil
}

// Bulk submits several generation requests at once. The server reports
// failures per item.
func Bulk(client *http.Client, baseURL string, requests []models.BulkRequest) ([]models.BulkResult, error) {
	var results []models.BulkResult
	body := map[string]any{"requests": requests}
	if err := call(client, http.MethodPost, baseURL+"/api/qr/bulk", body, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ListByUser returns the QR codes owned by username.
func ListByUser(client *http.Client, baseURL, username string) ([]models.QrCode, error) {
	q := url.Values{"username": {username}}
	var codes []models.QrCode
	if err := call(client, http.MethodGet, baseURL+"/api/qr/by-user?"+q.Encode(), nil, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// GetQr loads a single QR code with its owners.
func GetQr(client *http.Client, baseURL string, id int64) (*models.QrCode, error) {
	var qr models.QrCode
	if err := call(client, http.MethodGet, baseURL+"/api/qr/"+strconv.FormatInt(id, 10), nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// DeleteQr removes a QR code.
func DeleteQr(client *http.Client, baseURL string, id int64) error {
	return call(client, http.MethodDelete, baseURL+"/api/qr/"+strconv.FormatInt(id, 10), nil, nil)
}

// RequestCount returns the server's request counter.
func RequestCount(client *http.Client, baseURL string) (int64, error) {
	var n int64
	if err := call(client, http.MethodGet, baseURL+"/api/qr/request-count", nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// ResetCount sets the server's request counter back to zero.
func ResetCount(client *http.Client, baseURL string) error {
	return call(client, http.MethodPost, baseURL+"/api/qr/reset-count", nil, nil)
}

// call sends body as JSON and decodes a 2xx response into out when out is non-nil.
func call(client *http.Client, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %d %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
