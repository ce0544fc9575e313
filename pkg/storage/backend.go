// Package storage persists run artifacts to a local directory or S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	// Location renders key as a user-facing path or URL.
	Location(key string) string
}

// Open returns a store for target: "s3://bucket/prefix" or a local directory.
func Open(ctx context.Context, target string, opts S3Options) (BlobStore, error) {
	if !strings.HasPrefix(target, "s3://") {
		return NewLocalStore(target), nil
	}
	bucket, prefix, err := ParseS3URL(target)
	if err != nil {
		return nil, err
	}
	return NewS3StoreFromOptions(ctx, bucket, prefix, opts)
}

// ParseS3URL splits s3://bucket/some/prefix into bucket and prefix.
func ParseS3URL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 url %q: want s3://bucket[/prefix]", raw)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
