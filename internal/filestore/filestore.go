// Package filestore keeps uploaded feed files in a local blob directory.
// Object storage in production deployments sits behind the same Attachment
// surface: presence is a property of the entity's stored key, retrieval
// failures are transient.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Attachment is one stored feed file handle.
type Attachment interface {
	// Attached reports whether a file was ever stored under this handle.
	Attached() bool
	// Download returns the full byte content. Failure to fetch an attached
	// object is transient and safe to retry.
	Download() ([]byte, error)
}

// RetrievalError means attached bytes could not be fetched. It is
// transient: the caller should retry, unlike a feed.FormatError which is
// permanent.
type RetrievalError struct {
	Key string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieving %s: %v", e.Key, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Dir is a blob store rooted at a local directory.
type Dir struct {
	root string
}

// New creates a Dir store rooted at root.
func New(root string) *Dir {
	return &Dir{root: root}
}

// Save stores data under a fresh key derived from name and returns the key.
func (d *Dir) Save(name string, data []byte) (string, error) {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return "", fmt.Errorf("creating storage dir: %w", err)
	}

	key := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeName(name))
	if err := os.WriteFile(filepath.Join(d.root, key), data, 0o644); err != nil {
		return "", fmt.Errorf("storing %s: %w", name, err)
	}
	return key, nil
}

// Blob returns the attachment handle for key. An empty key is an absent
// attachment.
func (d *Dir) Blob(key string) Attachment {
	return blob{root: d.root, key: key}
}

type blob struct {
	root string
	key  string
}

func (b blob) Attached() bool { return b.key != "" }

func (b blob) Download() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.root, b.key))
	if err != nil {
		return nil, &RetrievalError{Key: b.key, Err: err}
	}
	return data, nil
}

func sanitizeName(name string) string {
	base := filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
