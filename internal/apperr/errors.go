// Package apperr defines the error taxonomy shared by the API client and
// its consumers. Sentinels are matched with errors.Is; ValidationError and
// ServerError carry a message and are matched with errors.As.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned for HTTP 401 responses. It is the signal
	// for session teardown; the API client itself never navigates.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when a document is absent or not owned by the
	// caller's account (the server answers 403 or 404 in both cases).
	ErrNotFound = errors.New("not found")
	// ErrNetwork is returned when a request never reached the server or
	// never returned.
	ErrNetwork = errors.New("network error")
	// ErrNoFilesSelected is a local precondition failure: an upload was
	// submitted without any selected files.
	ErrNoFilesSelected = errors.New("no files selected")
	// ErrUploadInFlight rejects a second submit while an upload is running.
	ErrUploadInFlight = errors.New("upload already in progress")
	// ErrStorageUnavailable is a local precondition failure: the session
	// state directory cannot be written.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError is a 4xx response with a user-actionable message.
// The operation may be retried after correcting input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ServerError is a 5xx or otherwise unclassified failure.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.Status)
	}
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// Retryable reports whether the error is transient and the same operation
// may simply be re-invoked (network and server failures).
func Retryable(err error) bool {
	var srv *ServerError
	return errors.Is(err, ErrNetwork) || errors.As(err, &srv)
}
