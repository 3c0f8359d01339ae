package inbox_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Sai2266/dealership-platform/internal/apiclient"
	"github.com/Sai2266/dealership-platform/internal/apitest"
	"github.com/Sai2266/dealership-platform/internal/checksum"
	"github.com/Sai2266/dealership-platform/internal/inbox"
	"github.com/Sai2266/dealership-platform/internal/index"
	"github.com/Sai2266/dealership-platform/internal/models"
	"github.com/Sai2266/dealership-platform/internal/testutil"
	"github.com/Sai2266/dealership-platform/internal/uploader"
)

func watchEnv(t *testing.T) (*apitest.Server, *uploader.Coordinator, *index.DB, string) {
	t.Helper()
	srv, ts := apitest.New(t)
	sessions := testutil.TestSessions(t)
	if err := sessions.Establish("t1", models.User{ID: 1}); err != nil {
		t.Fatal(err)
	}
	client := apiclient.New(ts.URL, 5*time.Second, sessions)
	coord := uploader.New(client, sessions, nil)
	db := testutil.TestDB(t)
	return srv, coord, db, t.TempDir()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestDroppedFileUploaded(t *testing.T) {
	srv, coord, db, dir := watchEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var uploaded []string
	go inbox.Watch(ctx, coord, db, dir, quietLogger(), func(path string, _ apiclient.UploadResult, err error) {
		if err != nil {
			t.Errorf("upload callback error for %s: %v", path, err)
			return
		}
		mu.Lock()
		uploaded = append(uploaded, filepath.Base(path))
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	content := []byte("scanned sale document")
	if err := os.WriteFile(filepath.Join(dir, "scan.pdf"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(uploaded) == 1 && uploaded[0] == "scan.pdf"
	}, "dropped file not uploaded")

	if len(srv.Docs) != 1 {
		t.Errorf("server stored %d docs", len(srv.Docs))
	}
	seen, err := db.SeenUpload(checksum.Sum(content))
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("upload should be recorded in the ledger")
	}
}

func TestDuplicateContentSkipped(t *testing.T) {
	srv, coord, db, dir := watchEnv(t)

	content := []byte("same bytes")
	// Already sitting in the inbox before the watcher starts.
	if err := os.WriteFile(filepath.Join(dir, "first.pdf"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inbox.Watch(ctx, coord, db, dir, quietLogger(), nil)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		seen, _ := db.SeenUpload(checksum.Sum(content))
		return seen
	}, "initial scan did not upload the existing file")

	// A copy under another name carries the same checksum and is skipped.
	if err := os.WriteFile(filepath.Join(dir, "copy.pdf"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(1200 * time.Millisecond)
	if got := len(srv.Docs); got != 1 {
		t.Errorf("server stored %d docs, duplicate content should be skipped", got)
	}
}

func TestUnsupportedFileIgnored(t *testing.T) {
	srv, coord, db, dir := watchEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inbox.Watch(ctx, coord, db, dir, quietLogger(), nil)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(1200 * time.Millisecond)
	if len(srv.Docs) != 0 {
		t.Errorf("unsupported file should be ignored, server stored %d docs", len(srv.Docs))
	}
}
