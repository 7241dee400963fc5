// Package store is the key/blob persistence layer: S3-compatible buckets
// (Cloudflare R2), a local directory tree, and an in-memory map.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("object not found")

// TransportError is any store failure other than "not found": network,
// auth, permission, bucket misconfiguration. Callers must not treat it as
// absence.
type TransportError struct {
	Op  string
	Key string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err carries a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Store is the object store contract used by the pipeline and the auditor.
type Store interface {
	// Exists returns (false, nil) for a missing key and a *TransportError
	// for everything else that goes wrong.
	Exists(ctx context.Context, key string) (bool, error)
	// Put overwrites unconditionally.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Name describes the backend for logs.
	Name() string
}
