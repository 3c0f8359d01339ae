// Package review models the view-then-edit-notes flow as a tagged state
// machine instead of nullable flags, so "no document selected" and "detail
// not yet loaded" are distinct, representable states:
//
//	Closed → Loading(id) → Viewing(detail) → Closed
package review

import (
	"sync"

	"github.com/Sai2266/dealership-platform/internal/models"
)

// Phase is the dialog's state tag.
type Phase int

const (
	Closed Phase = iota
	Loading
	Viewing
)

// Dialog holds the review state for at most one document. Detail is never
// cached longer than the dialog is open, which prevents stale notes from
// overwriting newer server state.
type Dialog struct {
	mu     sync.Mutex
	phase  Phase
	id     int
	detail models.DocumentDetail
	draft  string
}

// Begin transitions Closed → Loading for the given document id. Beginning
// while already open restarts the flow for the new id.
func (d *Dialog) Begin(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phase = Loading
	d.id = id
	d.detail = models.DocumentDetail{}
	d.draft = ""
}

// Loaded transitions Loading → Viewing. A late-arriving detail for a
// document the dialog is no longer loading is ignored rather than applied
// to a now-irrelevant state slot.
func (d *Dialog) Loaded(detail models.DocumentDetail) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != Loading || d.id != detail.ID {
		return false
	}
	d.phase = Viewing
	d.detail = detail
	d.draft = detail.Notes
	return true
}

// SetDraft updates the edited notes text. Only valid while Viewing.
func (d *Dialog) SetDraft(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != Viewing {
		return false
	}
	d.draft = text
	return true
}

// Draft returns the edited notes text while Viewing.
func (d *Dialog) Draft() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != Viewing {
		return "", false
	}
	return d.draft, true
}

// Current returns the loaded detail while Viewing.
func (d *Dialog) Current() (models.DocumentDetail, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != Viewing {
		return models.DocumentDetail{}, false
	}
	return d.detail, true
}

// Close discards the detail and returns to Closed. Idempotent.
func (d *Dialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phase = Closed
	d.id = 0
	d.detail = models.DocumentDetail{}
	d.draft = ""
}

// Phase returns the current state tag.
func (d *Dialog) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}
