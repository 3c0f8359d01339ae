// Package uploader owns the pending-file selection and drives the multipart
// upload request as a small state machine:
//
//	Idle → Selected → Uploading → {Succeeded, Failed}
//
// Select re-arms the machine from Idle, Succeeded, or Failed. Submit is only
// valid from Selected and issues one multipart request carrying all selected
// files.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sai2266/dealership-platform/internal/apiclient"
	"github.com/Sai2266/dealership-platform/internal/apperr"
	"github.com/Sai2266/dealership-platform/internal/models"
	"github.com/Sai2266/dealership-platform/internal/session"
)

// State is the coordinator's phase.
type State int

const (
	StateIdle State = iota
	StateSelected
	StateUploading
	StateSucceeded
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelected:
		return "selected"
	case StateUploading:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Coordinator drives one upload at a time. An unauthorized outcome is
// reported as a failure, never acted on here; navigation is the caller's
// responsibility.
type Coordinator struct {
	client   *apiclient.Client
	sessions *session.Store
	onLost   func()

	mu      sync.Mutex
	state   State
	pending []string // absolute paths of selected files
	lastErr error
}

// New creates a coordinator in the Idle state. onSessionLost may be nil;
// semantics match docrepo.New.
func New(client *apiclient.Client, sessions *session.Store, onSessionLost func()) *Coordinator {
	return &Coordinator{client: client, sessions: sessions, onLost: onSessionLost}
}

// Select stages files for upload and transitions to Selected. An empty list
// is rejected with ErrNoFilesSelected and the state does not change. Files
// must exist, carry an accepted extension (pdf, jpg, jpeg, png), and be
// under the server's size limit; these are local preconditions checked
// before any network call.
func (c *Coordinator) Select(paths []string) error {
	if len(paths) == 0 {
		return apperr.ErrNoFilesSelected
	}
	for _, p := range paths {
		if !models.AllowedFile(p) {
			return &apperr.ValidationError{Message: fmt.Sprintf("unsupported file type: %s", filepath.Base(p))}
		}
		info, err := os.Stat(p)
		if err != nil {
			return &apperr.ValidationError{Message: fmt.Sprintf("cannot read %s: %v", filepath.Base(p), err)}
		}
		if info.Size() > models.MaxUploadBytes {
			return &apperr.ValidationError{Message: fmt.Sprintf("file too large: %s", filepath.Base(p))}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUploading {
		return apperr.ErrUploadInFlight
	}
	c.pending = append([]string(nil), paths...)
	c.state = StateSelected
	c.lastErr = nil
	return nil
}

// Submit issues the multipart request for the selected files. Only valid
// from Selected; a submit while Uploading is rejected so no concurrent
// double-submission can happen. On success the pending selection is cleared.
func (c *Coordinator) Submit(ctx context.Context) (apiclient.UploadResult, error) {
	c.mu.Lock()
	switch c.state {
	case StateUploading:
		c.mu.Unlock()
		return apiclient.UploadResult{}, apperr.ErrUploadInFlight
	case StateSelected:
		// proceed
	default:
		c.mu.Unlock()
		return apiclient.UploadResult{}, apperr.ErrNoFilesSelected
	}
	paths := append([]string(nil), c.pending...)
	c.state = StateUploading
	c.mu.Unlock()

	result, err := c.upload(ctx, paths)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateFailed
		c.lastErr = err
		if errors.Is(err, apperr.ErrUnauthorized) {
			if c.sessions.Invalidate() && c.onLost != nil {
				c.onLost()
			}
		}
		return apiclient.UploadResult{}, err
	}
	c.state = StateSucceeded
	c.pending = nil
	c.lastErr = nil
	return result, nil
}

// upload opens the staged files and performs the request.
func (c *Coordinator) upload(ctx context.Context, paths []string) (apiclient.UploadResult, error) {
	files := make([]apiclient.UploadFile, 0, len(paths))
	handles := make([]*os.File, 0, len(paths))
	defer func() {
		for _, h := range handles {
			_ = h.Close()
		}
	}()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return apiclient.UploadResult{}, &apperr.ValidationError{Message: fmt.Sprintf("cannot open %s: %v", filepath.Base(p), err)}
		}
		handles = append(handles, f)
		files = append(files, apiclient.UploadFile{Name: filepath.Base(p), Data: f})
	}
	return c.client.Upload(ctx, files)
}

// Reset clears the pending selection and returns to Idle, e.g. when the
// user navigates away. Rejected while an upload is in flight.
func (c *Coordinator) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUploading {
		return apperr.ErrUploadInFlight
	}
	c.state = StateIdle
	c.pending = nil
	c.lastErr = nil
	return nil
}

// State returns the current phase.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the staged file paths.
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.pending...)
}

// LastErr returns the failure reason after a Failed transition.
func (c *Coordinator) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
