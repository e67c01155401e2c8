// Package storage contains the object storage abstraction used for document
// files (S3-compatible backends). Implementations must rely on streaming I/O
// only; no local disk.
package storage

import (
	"context"
	"io"
	"time"
)

// Progress is a snapshot of an in-flight transfer.
type Progress struct {
	BytesTransferred int64   `json:"bytes_transferred"`
	TotalBytes       int64   `json:"total_bytes"`
	Percentage       float64 `json:"percentage"`
	ETASeconds       int64   `json:"eta_seconds"`
}

// ProgressFunc receives progress snapshots at a bounded rate during a
// transfer, plus one final snapshot at 100% on success. Callbacks run on the
// transfer goroutine and must not block.
type ProgressFunc func(Progress)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
	OnProgress  ProgressFunc
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
// All methods take a context; canceling it aborts the operation.
type Storage interface {
	// Put uploads an object under the given key, emitting throttled progress
	// events when opt.OnProgress is set. Failures are returned as
	// *TransferError so callers can map them to user-facing messages.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes a single object by key.
	Delete(ctx context.Context, key string) error
	// DeleteAll removes every object under the given prefix. Used to delete
	// all versions of a document at once.
	DeleteAll(ctx context.Context, prefix string) error
	// PresignGet returns a time-limited URL that can be used to download the
	// object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
