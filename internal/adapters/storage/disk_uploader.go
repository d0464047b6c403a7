package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

var allowedExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// DiskUploader writes thumbnails under dir and returns URLs under baseURL.
// Files get random names so uploads never overwrite each other.
type DiskUploader struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewDiskUploader(dir, baseURL string, maxBytes int64) (*DiskUploader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &DiskUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

func (u *DiskUploader) Upload(ctx context.Context, file ports.UploadFile) (string, error) {
	ext, ok := allowedExtensions[strings.ToLower(file.ContentType)]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", file.ContentType)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	path := filepath.Join(u.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(file.Body, u.maxBytes+1))
	closeErr := f.Close()
	if err == nil && n > u.maxBytes {
		err = fmt.Errorf("upload exceeds %d bytes", u.maxBytes)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return u.baseURL + "/" + name, nil
}
