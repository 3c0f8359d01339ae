// Package testutil provides shared test helpers for setting up state
// directories, session stores, and index databases.
package testutil

import (
	"os"
	"testing"

	"github.com/Sai2266/dealership-platform/internal/index"
	"github.com/Sai2266/dealership-platform/internal/session"
	"github.com/Sai2266/dealership-platform/internal/storage"
)

// TestState creates a temporary state directory with a storage.Provider.
func TestState(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestSessions creates a session store backed by a temporary directory.
func TestSessions(t *testing.T) *session.Store {
	t.Helper()
	_, files := TestState(t)
	return session.NewStore(files)
}

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dealerdocs-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
