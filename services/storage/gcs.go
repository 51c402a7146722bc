package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStorage implements StorageService on a Google Cloud Storage bucket.
// Objects are private and served through V4 signed URLs.
type GCSStorage struct {
	client     *storage.Client
	bucketName string
}

// NewGCSStorage creates a GCS-backed store. An empty credentials path uses
// application default credentials.
func NewGCSStorage(ctx context.Context, credentialsFile, bucketName string) (*GCSStorage, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("GCS_BUCKET is not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStorage{client: client, bucketName: bucketName}, nil
}

func (s *GCSStorage) Upload(ctx context.Context, r io.Reader, folder, filename string) (Object, error) {
	name := objectName(folder, filename)
	w := s.client.Bucket(s.bucketName).Object(name).NewWriter(ctx)
	if ext := path.Ext(filename); ext != "" {
		w.ObjectAttrs.ContentType = mime.TypeByExtension(ext)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return Object{}, fmt.Errorf("failed to copy file to storage: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close writer: %w", err)
	}
	return Object{ID: name, URL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, name)}, nil
}

func (s *GCSStorage) Delete(ctx context.Context, id string) error {
	if err := s.client.Bucket(s.bucketName).Object(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *GCSStorage) SignedURL(_ context.Context, id string, expires time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucketName).SignedURL(id, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expires),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

func (s *GCSStorage) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucketName).Object(id).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", id, err)
	}
	return r, nil
}
