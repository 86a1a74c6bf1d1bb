package utils

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	StorageProviderLocal = "local"
	StorageProviderGCS   = "gcs"
)

// Storage persists generated documents and returns where they can be found.
type Storage interface {
	Save(ctx context.Context, objectName string, contentType string, data []byte) (string, error)
}

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderLocal
	}
	return provider
}

// NewStorageFromEnv builds the Storage selected by STORAGE_PROVIDER.
func NewStorageFromEnv() (Storage, error) {
	switch GetStorageProvider() {
	case StorageProviderLocal:
		dir := os.Getenv("STORAGE_DIR")
		if dir == "" {
			dir = "storage/public"
		}
		return &LocalStorage{Dir: dir, PublicURL: os.Getenv("STORAGE_PUBLIC_URL")}, nil
	case StorageProviderGCS:
		bucket := os.Getenv("GCS_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required")
		}
		return &GCSStorage{Bucket: bucket}, nil
	}
	return nil, fmt.Errorf("unsupported STORAGE_PROVIDER %q", GetStorageProvider())
}

// LocalStorage writes under Dir. When PublicURL is set the returned
// location is PublicURL/objectName, otherwise the file path.
type LocalStorage struct {
	Dir       string
	PublicURL string
}

func (s *LocalStorage) Save(ctx context.Context, objectName string, contentType string, data []byte) (string, error) {
	clean := path.Clean("/" + objectName)[1:]
	full := filepath.Join(s.Dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	if s.PublicURL != "" {
		return strings.TrimRight(s.PublicURL, "/") + "/" + clean, nil
	}
	return full, nil
}
