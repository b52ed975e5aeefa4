package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage persists files on disk under a base directory and signs download links
// served by the API itself.
type LocalStorage struct {
	baseDir     string
	downloadURL string
	signer      *SignedURLSigner
}

// NewLocalStorage ensures the base directory exists and returns a handle. downloadURL is the
// public path of the download endpoint, e.g. /api/v1/exports/download.
func NewLocalStorage(baseDir, downloadURL string, signer *SignedURLSigner) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create exports directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, downloadURL: downloadURL, signer: signer}, nil
}

// Put writes the given bytes to key under the base dir.
func (s *LocalStorage) Put(_ context.Context, key, _ string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// URL signs a download link for key.
func (s *LocalStorage) URL(_ context.Context, exportID, key string) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(exportID, key)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.downloadURL + "?token=" + url.QueryEscape(token), expiresAt, nil
}

// Resolve validates a download token and returns the file path it grants access to.
func (s *LocalStorage) Resolve(token string) (string, *DownloadClaims, error) {
	claims, err := s.signer.Parse(token, false)
	if err != nil {
		return "", nil, err
	}
	path, err := s.resolve(claims.Key)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil, fmt.Errorf("open export file: %w", err)
	}
	return path, claims, nil
}

// CleanupOlderThan removes files older than the provided TTL and returns deleted keys.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
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
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup exports: %w", err)
	}
	return deleted, nil
}

// resolve keeps every key inside the base directory.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.baseDir, clean)
	base := filepath.Clean(s.baseDir)
	if path != base && !strings.HasPrefix(path, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid export key %q", key)
	}
	return path, nil
}
