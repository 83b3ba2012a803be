// Package storage abstracts where uploaded evidence files live. The service
// layer only sees the Storage interface; the local-disk implementation is the
// default and tests swap in their own.
package storage

import (
	"context"
	"io"
)

// Storage persists uploaded files under server-generated names.
type Storage interface {
	// Save writes the file content under the given name and returns the
	// stored path/reference.
	Save(ctx context.Context, name string, content io.Reader) (string, error)
}
