// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/larder/internal/models"

// Provider is the interface for vault file operations. Paths are relative to
// the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every YAML document under dir.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root is the absolute vault directory.
	Root() string
}
