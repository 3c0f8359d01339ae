package internal

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sai2266/dealership-platform/internal/apiclient"
	"github.com/Sai2266/dealership-platform/internal/apitest"
	"github.com/Sai2266/dealership-platform/internal/models"
	"github.com/Sai2266/dealership-platform/internal/navguard"
)

func testApp(t *testing.T, baseURL string, notices *[]string) *App {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 5 * time.Second
	cfg.State.Dir = filepath.Join(t.TempDir(), "state")
	cfg.Downloads.Dir = filepath.Join(t.TempDir(), "downloads")

	opts := []Option{WithConfig(cfg)}
	if notices != nil {
		opts = append(opts, WithSessionNotice(func(msg string) {
			*notices = append(*notices, msg)
		}))
	}
	app, err := NewApp(opts...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func TestNewAppRequiresConfig(t *testing.T) {
	if _, err := NewApp(); err == nil {
		t.Error("NewApp without config should fail")
	}
}

func TestEnterBlocksLoggedOut(t *testing.T) {
	_, ts := apitest.New(t)
	app := testApp(t, ts.URL, nil)

	if err := app.Enter(navguard.DestDocuments); err == nil {
		t.Error("Enter should fail while logged out")
	}
	if app.Guard.Location() != navguard.DestAuth {
		t.Errorf("location = %s", app.Guard.Location())
	}
}

func TestEnterAfterLogin(t *testing.T) {
	_, ts := apitest.New(t)
	app := testApp(t, ts.URL, nil)

	sess, err := app.Client.Login(context.Background(), apiclient.Credentials{Email: "d@x.com", Password: "p"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := app.Sessions.Establish(sess.Token, sess.User); err != nil {
		t.Fatal(err)
	}

	if err := app.Enter(navguard.DestDocuments); err != nil {
		t.Errorf("Enter after login: %v", err)
	}
	if app.Guard.Location() != navguard.DestDocuments {
		t.Errorf("location = %s", app.Guard.Location())
	}
}

func TestSessionLostNoticeThenRedirect(t *testing.T) {
	srv, ts := apitest.New(t)
	var notices []string
	app := testApp(t, ts.URL, &notices)

	if err := app.Sessions.Establish("t1", models.User{ID: 1, Email: "d@x.com"}); err != nil {
		t.Fatal(err)
	}
	if err := app.Enter(navguard.DestDocuments); err != nil {
		t.Fatal(err)
	}

	srv.ForceStatus = http.StatusUnauthorized
	srv.ForceError = "Token expired"

	ctx := context.Background()
	_, _ = app.Docs.List(ctx)
	_, _ = app.Docs.Detail(ctx, 1) // second failure must not re-notify

	if len(notices) != 1 {
		t.Fatalf("notices = %v, want exactly one", notices)
	}
	if app.Guard.Location() != navguard.DestAuth {
		t.Errorf("location = %s, want auth", app.Guard.Location())
	}
	if _, ok := app.Sessions.Current(); ok {
		t.Error("session should be cleared")
	}
}

func TestSessionResumesAcrossProcesses(t *testing.T) {
	_, ts := apitest.New(t)

	stateDir := filepath.Join(t.TempDir(), "state")
	cfg := NewDefaultConfig()
	cfg.API.BaseURL = ts.URL
	cfg.State.Dir = stateDir
	cfg.Downloads.Dir = filepath.Join(t.TempDir(), "downloads")

	app1, err := NewApp(WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if err := app1.Sessions.Establish("t1", models.User{ID: 1, Email: "d@x.com"}); err != nil {
		t.Fatal(err)
	}
	app1.Close()

	app2, err := NewApp(WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { app2.Close() })

	if _, ok := app2.Sessions.Current(); !ok {
		t.Error("second app should resume the persisted session")
	}
	// A resumed session lands on the dashboard, not the auth view.
	if app2.Guard.Location() != navguard.DestDashboard {
		t.Errorf("location = %s", app2.Guard.Location())
	}
}
