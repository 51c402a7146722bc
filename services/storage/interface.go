package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"sponsorly/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/google/uuid"
)

// Object identifies a stored file.
type Object struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StorageService stores media-kit assets and report artifacts.
type StorageService interface {
	// Upload stores the content of r under folder. filename only supplies
	// the extension and a readable prefix.
	Upload(ctx context.Context, r io.Reader, folder, filename string) (Object, error)
	Delete(ctx context.Context, id string) error
	// SignedURL returns a short-lived download URL.
	SignedURL(ctx context.Context, id string, expires time.Duration) (string, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
}

// NewFromConfig builds the backend selected by STORAGE_BACKEND.
func NewFromConfig(ctx context.Context, cfg config.Config) (StorageService, error) {
	switch cfg.StorageBackend {
	case "", "cloudinary":
		cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return nil, fmt.Errorf("failed to configure Cloudinary: %w", err)
		}
		return NewCloudinaryStorage(cld, cfg.CloudinaryCloudName), nil
	case "gcs":
		return NewGCSStorage(ctx, cfg.GoogleCredentialsFile, cfg.GCSBucket)
	case "memory":
		return NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// objectName builds a unique object name that keeps the file extension.
func objectName(folder, filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, base)
	if base == "" || base == "." {
		base = "file"
	}
	return path.Join(folder, fmt.Sprintf("%s-%s%s", base, uuid.New().String()[:8], strings.ToLower(path.Ext(filename))))
}

// MemoryStorage keeps objects in process memory. It backs local runs
// without cloud credentials and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: map[string][]byte{}}
}

func (m *MemoryStorage) Upload(_ context.Context, r io.Reader, folder, filename string) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("failed to read upload: %w", err)
	}
	id := objectName(folder, filename)
	m.mu.Lock()
	m.objects[id] = data
	m.mu.Unlock()
	return Object{ID: id, URL: "memory://" + id}, nil
}

func (m *MemoryStorage) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; !ok {
		return fmt.Errorf("object %s not found", id)
	}
	delete(m.objects, id)
	return nil
}

func (m *MemoryStorage) SignedURL(_ context.Context, id string, expires time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[id]; !ok {
		return "", fmt.Errorf("object %s not found", id)
	}
	return fmt.Sprintf("memory://%s?expires=%d", id, time.Now().Add(expires).Unix()), nil
}

func (m *MemoryStorage) Open(_ context.Context, id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Len reports how many objects are stored.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
