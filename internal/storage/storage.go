// Package storage contains the file/object storage used for derivative images.
//
// Writes are two-phase: Stage puts the bytes under a temporary name next to
// the final key, Promote makes them visible under the final key and Discard
// throws a staged object away. Callers stage everything, commit their database
// transaction and only then promote.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// Collections used by the ingestion pipeline.
const (
	CollectionUploads  = "uploads"
	CollectionProfiles = "profiles"
)

// ErrInvalidKey is returned for keys that are empty, absolute or escape the
// storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// ErrNotFound is returned by Get when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known, or -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Staged identifies an object written under a temporary name.
type Staged struct {
	Key     string // final key
	TempKey string
}

// Storage is the two-phase object store. Implementations are safe for
// concurrent use.
type Storage interface {
	// Stage writes r under a temporary name derived from key. The object is
	// durable but not visible under key until Promote.
	Stage(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (Staged, error)
	// Promote atomically moves a staged object to its final key.
	Promote(ctx context.Context, s Staged) error
	// Discard removes a staged object. Discarding a missing object is not an error.
	Discard(ctx context.Context, s Staged) error
	// Delete removes a promoted object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
}

// Key joins a collection and a file name into a storage key.
func Key(collection, name string) string {
	return collection + "/" + name
}

// PublicPath is the path recorded in the database for key, e.g. "/uploads/a.png".
func PublicPath(key string) string {
	return "/" + key
}

// KeyFromPublicPath reverses PublicPath.
func KeyFromPublicPath(p string) string {
	return strings.TrimPrefix(p, "/")
}

// cleanKey validates key and returns it in canonical slash form.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	k := path.Clean(key)
	if k == "." || k == ".." || path.IsAbs(k) || strings.HasPrefix(k, "../") {
		return "", ErrInvalidKey
	}
	return k, nil
}

const stagingPrefix = ".staging-"

// stagingName is the temporary sibling name used for a staged write of key.
func stagingName(key, id string) string {
	dir, file := path.Split(key)
	return dir + stagingPrefix + id + "-" + file
}

// IsStaging reports whether key names an uncommitted staged write.
func IsStaging(key string) bool {
	return strings.HasPrefix(path.Base(key), stagingPrefix)
}
