package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/Sai2266/dealership-platform/internal/apperr"
	"github.com/Sai2266/dealership-platform/internal/models"
	"github.com/Sai2266/dealership-platform/internal/storage"
)

func testFiles(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

func dealer() models.User {
	return models.User{ID: 1, Email: "d@x.com", Role: models.RoleDealer, DealershipName: "Test Motors"}
}

func TestEstablishAndCurrent(t *testing.T) {
	_, files := testFiles(t)
	s := NewStore(files)

	if _, ok := s.Current(); ok {
		t.Fatal("fresh store should have no session")
	}
	if err := s.Establish("t1", dealer()); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	sess, ok := s.Current()
	if !ok {
		t.Fatal("session should be present")
	}
	if sess.Token != "t1" || sess.User.Email != "d@x.com" {
		t.Errorf("session = %+v", sess)
	}
	token, ok := s.Token()
	if !ok || token != "t1" {
		t.Errorf("Token() = %q, %v", token, ok)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	_, files := testFiles(t)
	s := NewStore(files)
	_ = s.Establish("t1", dealer())

	s.Clear()
	s.Clear()
	if _, ok := s.Current(); ok {
		t.Error("session should be gone after Clear")
	}
	if _, ok := s.Token(); ok {
		t.Error("token should be gone after Clear")
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	dir, files := testFiles(t)
	s := NewStore(files)
	if err := s.Establish("t1", dealer()); err != nil {
		t.Fatal(err)
	}

	// A second store over the same directory simulates a new process.
	fs2, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	s2 := NewStore(fs2)
	sess, ok := s2.Current()
	if !ok {
		t.Fatal("persisted session should load")
	}
	if sess.Token != "t1" || sess.User.DealershipName != "Test Motors" {
		t.Errorf("reloaded session = %+v", sess)
	}
}

func TestCorruptSessionFileTreatedAsAbsent(t *testing.T) {
	dir, files := testFiles(t)
	if err := files.Write("session.json", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	s := NewStore(files)
	if _, ok := s.Current(); ok {
		t.Error("corrupt session file should load as absent")
	}

	// The corrupt file is removed, so a reload stays absent.
	fs2, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs2.Read("session.json"); err == nil {
		t.Error("corrupt session file should have been removed")
	}
}

func TestEstablishStorageFailure(t *testing.T) {
	_, files := testFiles(t)
	s := NewStore(failingProvider{files})

	err := s.Establish("t1", dealer())
	if !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
	if _, ok := s.Current(); ok {
		t.Error("session must not be established when persistence fails")
	}
}

func TestInvalidateExactlyOnce(t *testing.T) {
	_, files := testFiles(t)
	s := NewStore(files)
	_ = s.Establish("t1", dealer())

	if !s.Invalidate() {
		t.Fatal("first Invalidate should report the transition")
	}
	if s.Invalidate() {
		t.Error("second Invalidate should report no transition")
	}

	// Re-login re-arms the transition.
	_ = s.Establish("t2", dealer())
	if !s.Invalidate() {
		t.Error("Invalidate after re-login should report the transition again")
	}
}

func TestInvalidateConcurrent(t *testing.T) {
	_, files := testFiles(t)
	s := NewStore(files)
	_ = s.Establish("t1", dealer())

	const n = 16
	var wg sync.WaitGroup
	transitions := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transitions <- s.Invalidate()
		}()
	}
	wg.Wait()
	close(transitions)

	count := 0
	for got := range transitions {
		if got {
			count++
		}
	}
	if count != 1 {
		t.Errorf("exactly one Invalidate should win, got %d", count)
	}
}

// failingProvider rejects writes while delegating reads and deletes.
type failingProvider struct {
	storage.Provider
}

func (failingProvider) Write(string, []byte) error {
	return errors.New("disk full")
}
