package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

func TestDiskUploaderWritesFileAndReturnsURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	u, err := NewDiskUploader(dir, "https://cdn.example.com/thumbs/", 1024)
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	url, err := u.Upload(context.Background(), ports.UploadFile{
		ContentType: "image/PNG",
		Body:        bytes.NewReader([]byte("png-bytes")),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.example.com/thumbs/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected url %q", url)
	}
	raw, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	if err != nil || string(raw) != "png-bytes" {
		t.Fatalf("stored file mismatch: %q %v", raw, err)
	}
}

func TestDiskUploaderRejectsBadUploads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	u, err := NewDiskUploader(dir, "/uploads", 4)
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}
	if _, err := u.Upload(context.Background(), ports.UploadFile{ContentType: "text/html", Body: strings.NewReader("x")}); err == nil {
		t.Fatalf("expected content type rejection")
	}
	if _, err := u.Upload(context.Background(), ports.UploadFile{ContentType: "image/jpeg", Body: strings.NewReader("too large")}); err == nil {
		t.Fatalf("expected size rejection")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("rejected uploads must not leave files, found %d", len(entries))
	}
}

func TestNewDiskUploaderRequiresDir(t *testing.T) {
	t.Parallel()

	if _, err := NewDiskUploader("  ", "", 0); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}
