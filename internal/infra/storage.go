package infra

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EvidenceStore persists signature and photo uploads on local disk.
// Assets must be durably stored BEFORE the exchange row is written; a failure
// here aborts the whole intake. Blobs orphaned by a later DB failure are
// acceptable and can be swept offline.
type EvidenceStore struct {
	basePath string
}

func NewEvidenceStore(basePath string) (*EvidenceStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("evidence store: %w", err)
	}
	return &EvidenceStore{basePath: basePath}, nil
}

// Save writes the upload under basePath/{userID}/{folder}/ and returns the
// URL path the API serves it from.
func (s *EvidenceStore) Save(userID uuid.UUID, folder string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("evidence store: open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	dir := filepath.Join(s.basePath, userID.String(), folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("evidence store: %w", err)
	}

	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("evidence store: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("evidence store: write: %w", err)
	}
	if err := dst.Sync(); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("evidence store: sync: %w", err)
	}

	return fmt.Sprintf("/files/%s/%s/%s", userID, folder, name), nil
}

// BasePath returns the directory served under /files.
func (s *EvidenceStore) BasePath() string { return s.basePath }
