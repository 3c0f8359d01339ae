// Package navguard gates entry into protected destinations on session
// validity. The decision is a pure function of session presence and the
// requested destination, re-evaluated on every attempt because session
// state can change asynchronously (a mid-session 401).
package navguard

import (
	"sync"

	"github.com/Sai2266/dealership-platform/internal/models"
)

// Destination names a navigable view of the client.
type Destination string

const (
	DestAuth      Destination = "auth"
	DestDashboard Destination = "dashboard"
	DestUpload    Destination = "upload"
	DestDocuments Destination = "documents"
)

// Protected reports whether a destination requires a session.
func Protected(d Destination) bool {
	return d != DestAuth
}

// SessionReader is the read-only view of the session store the guard needs.
type SessionReader interface {
	Current() (models.Session, bool)
}

// Guard resolves navigation attempts against current session state and
// tracks the current location. Redirects are idempotent: navigating to the
// location already shown is a no-op.
type Guard struct {
	sessions SessionReader

	mu       sync.Mutex
	location Destination
}

// New creates a guard over the given session store.
func New(sessions SessionReader) *Guard {
	return &Guard{sessions: sessions, location: DestAuth}
}

// Resolve returns the destination that should actually be shown for a
// requested destination. Protected destinations without a session resolve
// to the auth entry point; the auth entry point with a session resolves to
// the default protected destination.
func (g *Guard) Resolve(requested Destination) Destination {
	_, loggedIn := g.sessions.Current()
	switch {
	case Protected(requested) && !loggedIn:
		return DestAuth
	case requested == DestAuth && loggedIn:
		return DestDashboard
	default:
		return requested
	}
}

// Navigate resolves the requested destination, moves there, and reports
// whether the location actually changed.
func (g *Guard) Navigate(requested Destination) (Destination, bool) {
	dest := g.Resolve(requested)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.location == dest {
		return dest, false
	}
	g.location = dest
	return dest, true
}

// Location returns the destination currently shown.
func (g *Guard) Location() Destination {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.location
}
