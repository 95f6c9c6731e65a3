package client

import (
	"encoding/base64"
	"fmt"
	"os"
)

// SaveImage decodes a base64 PNG and writes it to path.
func SaveImage(path, image string) error {
	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return fmt.Errorf("invalid image: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
