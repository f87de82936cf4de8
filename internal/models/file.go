// Package models defines the domain types for Larder.
package models

import "time"

// FileMetadata is a lightweight description of a vault file returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
