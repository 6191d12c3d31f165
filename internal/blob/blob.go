// Package blob stores submission bundles, the JSON payloads handed to the
// downstream metadata database. Bundles are immutable once written: Put is
// create-only across every driver.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete bundle storage backend.
type Driver string

const (
	// DriverFilesystem stores bundles under a local directory (default, dev).
	DriverFilesystem Driver = "fs"
	// DriverS3 stores bundles in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps bundles in process memory (tests).
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	// Metadata holds small flat key-value user metadata, e.g. the mission
	// key and validation context of a bundle.
	Metadata map[string]string
}

// SignedURLOptions holds options for generating a pre-signed URL.
type SignedURLOptions struct {
	Method string        // GET|PUT (only GET supported)
	Expiry time.Duration // default 15m
}

// Info describes a stored bundle.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store provides a thin S3-like abstraction over bundle storage.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = errors.New("blob: unsupported operation")

// Compile-time contract assertions.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FSStore)(nil)
	_ Store = (*S3Store)(nil)
)

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
