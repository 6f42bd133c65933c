// Package store narrows the managed document and object stores down to the
// operations the backend actually performs: path-addressed document CRUD,
// subcollection enumeration, atomic batches, array-union appends, and
// prefix-scoped blob listing and deletion.
package store

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Doc is one document of a collection listing.
type Doc struct {
	ID   string
	Data map[string]interface{}
}

// Store is a Firestore-shaped document store. Paths are slash-separated and
// alternate collection/document segments, e.g. "products/p1/modules/m1".
type Store interface {
	// Get returns the document data, or ErrNotFound.
	Get(ctx context.Context, path string) (map[string]interface{}, error)
	// Set creates or fully overwrites a document.
	Set(ctx context.Context, path string, data interface{}) error
	// Merge upserts only the given fields.
	Merge(ctx context.Context, path string, data map[string]interface{}) error
	// ArrayAppend merges values into an array field without replacing the
	// entries already present. Concurrent appends do not overwrite each other.
	ArrayAppend(ctx context.Context, path, field string, values ...interface{}) error
	// Delete removes a single document. Deleting an absent document is a no-op.
	Delete(ctx context.Context, path string) error
	// Docs lists every document of a collection. An unknown collection yields
	// an empty slice, not an error.
	Docs(ctx context.Context, collection string) ([]Doc, error)
	// Collections lists the names of a document's immediate subcollections.
	Collections(ctx context.Context, path string) ([]string, error)
	// QueryEq lists the documents of a collection whose field equals value.
	QueryEq(ctx context.Context, collection, field string, value interface{}) ([]Doc, error)
	// NewID generates a fresh document id.
	NewID() string
	// Batch starts an atomic multi-document write.
	Batch() Batch
}

// Batch collects writes that commit all-or-nothing.
type Batch interface {
	Set(path string, data interface{})
	Delete(path string)
	Commit(ctx context.Context) error
}

// Blobs is the object store. Keys are path-like; "folders" are a prefix
// convention, not real directories.
type Blobs interface {
	// List returns every object name under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes one object.
	Delete(ctx context.Context, name string) error
	// Upload stores an object and returns its download URL.
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}
