// Package storage provides object storage backends for archived dataset
// exports.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDownloadFailed = errors.New("download failed")
	ErrDeleteFailed   = errors.New("delete failed")
)

// ObjectStorage abstracts the archive backend. Implementations include S3
// and the local filesystem. Archived exports are bounded by the CSV size
// limit, so objects move as whole byte slices.
type ObjectStorage interface {
	// Upload stores data at objectPath, overwriting any existing object.
	Upload(ctx context.Context, objectPath string, data []byte) error

	// Download returns the object's content.
	Download(ctx context.Context, objectPath string) ([]byte, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectPath string) error

	// Exists checks whether an object exists.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}
