// Package docrepo maintains the in-memory document list and fetches
// per-document OCR/notes detail. The list is a disposable snapshot replaced
// wholesale on every refresh, never incrementally patched, so server-side
// OCR completion can't leave the cache drifting.
package docrepo

import (
	"context"
	"errors"
	"sync"

	"github.com/Sai2266/dealership-platform/internal/apiclient"
	"github.com/Sai2266/dealership-platform/internal/apperr"
	"github.com/Sai2266/dealership-platform/internal/models"
	"github.com/Sai2266/dealership-platform/internal/session"
)

// Repository drives document-lifecycle operations through the API client.
// Classified errors propagate unchanged, except that an unauthorized
// outcome additionally triggers exactly-once session teardown.
type Repository struct {
	client   *apiclient.Client
	sessions *session.Store
	onLost   func() // runs at most once per session

	mu   sync.RWMutex
	docs []models.Document
}

// New creates a repository. onSessionLost may be nil; when set it runs
// exactly once per session when any operation returns unauthorized, even if
// several racing calls fail together.
func New(client *apiclient.Client, sessions *session.Store, onSessionLost func()) *Repository {
	return &Repository{client: client, sessions: sessions, onLost: onSessionLost}
}

// fail funnels every operation error through the teardown check.
func (r *Repository) fail(err error) error {
	if errors.Is(err, apperr.ErrUnauthorized) {
		if r.sessions.Invalidate() && r.onLost != nil {
			r.onLost()
		}
	}
	return err
}

// List fetches the current document set and replaces the cached snapshot
// wholesale.
func (r *Repository) List(ctx context.Context) ([]models.Document, error) {
	docs, err := r.client.ListDocuments(ctx)
	if err != nil {
		return nil, r.fail(err)
	}
	r.mu.Lock()
	r.docs = docs
	r.mu.Unlock()
	return docs, nil
}

// Cached returns the snapshot from the last successful List. It may be
// stale; callers needing current state re-run List.
func (r *Repository) Cached() []models.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Document, len(r.docs))
	copy(out, r.docs)
	return out
}

// Detail fetches OCR fields and notes for one document. The result is not
// cached here: detail lives only as long as the review view that asked for
// it.
func (r *Repository) Detail(ctx context.Context, id int) (models.DocumentDetail, error) {
	detail, err := r.client.DocumentDetail(ctx, id)
	if err != nil {
		return models.DocumentDetail{}, r.fail(err)
	}
	return detail, nil
}

// SaveNotes writes the notes text for one document. It does not mutate any
// cached detail; callers re-fetch to avoid mixing stale and fresh fields.
func (r *Repository) SaveNotes(ctx context.Context, id int, text string) error {
	if err := r.client.SaveNotes(ctx, id, text); err != nil {
		return r.fail(err)
	}
	return nil
}

// Download returns the document bytes and a suggested filename. Persisting
// the bytes is the caller's job.
func (r *Repository) Download(ctx context.Context, id int) ([]byte, string, error) {
	data, name, err := r.client.Download(ctx, id)
	if err != nil {
		return nil, "", r.fail(err)
	}
	return data, name, nil
}

// Delete removes one document and refreshes the list. The snapshot is never
// locally spliced: deletion may cascade to detail state elsewhere, so only
// the server's view is trusted. Explicit user confirmation happens at the
// boundary before this is called.
func (r *Repository) Delete(ctx context.Context, id int) error {
	if err := r.client.DeleteDocument(ctx, id); err != nil {
		return r.fail(err)
	}
	_, err := r.List(ctx)
	return err
}
