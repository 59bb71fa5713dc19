package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type Config struct {
	Bucket          string
	CredentialsFile string
	// SignerEmail is the service account that signs upload URLs. Empty means the
	// one found in the credentials.
	SignerEmail string
}

// Store writes console uploads to a single Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	cfg    Config
}

func NewClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	if credentialsFile != "" {
		return storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	}
	return storage.NewClient(ctx)
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client, err := NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: client.Bucket(cfg.Bucket), cfg: cfg}, nil
}

func (s *Store) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// SignedPutURL returns a V4 signed URL; the client must send the same Content-Type header.
func (s *Store) SignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(ttl),
	}
	if s.cfg.SignerEmail != "" {
		opts.GoogleAccessID = s.cfg.SignerEmail
	}

	url, err := s.bucket.SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign object %s: %w", key, err)
	}
	return url, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.bucket.Attrs(ctx)
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}
