package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempState(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempState(t)
	content := []byte(`{"token":"t1"}`)
	if err := s.Write("session.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("session.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempState(t)
	if err := s.Write("a/b/c.pdf", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.pdf")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := s.Write("doc.pdf", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".dealerdocs-tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDelete(t *testing.T) {
	s := tempState(t)
	_ = s.Write("gone.json", []byte("bye"))
	if err := s.Delete("gone.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("gone.json"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestDeleteMissingIsNoError(t *testing.T) {
	s := tempState(t)
	if err := s.Delete("never-existed.json"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestTraversalRejected(t *testing.T) {
	s := tempState(t)
	for _, p := range []string{"../escape.json", "a/../../escape.json", "/etc/passwd", ""} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("Read(%q) should be rejected", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("Write(%q) should be rejected", p)
		}
	}
}

func TestNewFSRequiresDirectory(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("NewFS should fail for a missing directory")
	}

	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFS(file); err == nil {
		t.Error("NewFS should fail when root is a file")
	}
}
