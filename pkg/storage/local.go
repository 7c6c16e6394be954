package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalProvider persists uploaded files on disk under a base directory and
// serves them from a public base URL.
type LocalProvider struct {
	baseDir string
	baseURL string
}

// NewLocalProvider ensures the base directory exists and returns a handle.
func NewLocalProvider(baseDir, baseURL string) (*LocalProvider, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalProvider{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes the bytes under folder and returns the public locator pair.
// The public ID is the provider-relative path; callers treat it as opaque.
func (p *LocalProvider) Upload(ctx context.Context, data []byte, folder, filename string) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ext := filepath.Ext(filename)
	publicID := filepath.Join(folder, uuid.NewString()+ext)
	path := p.resolve(publicID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	return &StoredFile{
		URL:      p.baseURL + "/" + filepath.ToSlash(publicID),
		PublicID: publicID,
	}, nil
}

// Delete removes a stored file if present.
func (p *LocalProvider) Delete(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := p.resolve(publicID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Open returns a read-only handle for the stored file.
func (p *LocalProvider) Open(publicID string) (*os.File, error) {
	file, err := os.Open(p.resolve(publicID))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// CleanupOlderThan removes files older than the provided TTL and returns
// the public IDs that were deleted. Files for which keep returns true are
// left alone regardless of age.
func (p *LocalProvider) CleanupOlderThan(ttl time.Duration, keep func(publicID string) bool) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(p.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		rel, relErr := filepath.Rel(p.baseDir, path)
		if relErr != nil {
			rel = path
		}
		if keep != nil && keep(rel) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup uploads: %w", err)
	}
	return deleted, nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (p *LocalProvider) Path(publicID string) string {
	return p.resolve(publicID)
}

func (p *LocalProvider) resolve(publicID string) string {
	if filepath.IsAbs(publicID) {
		return publicID
	}
	return filepath.Join(p.baseDir, publicID)
}
