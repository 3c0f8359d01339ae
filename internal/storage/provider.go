// Package storage defines the local file store used for session state and
// downloaded documents.
package storage

// Provider is the interface for local file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Delete removes the file at path. Missing files are not an error.
	Delete(path string) error
}
