// Package internal wires the session store, API client, document
// repository, upload coordinator, and navigation guard into one
// application.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Sai2266/dealership-platform/internal/apiclient"
	"github.com/Sai2266/dealership-platform/internal/docrepo"
	"github.com/Sai2266/dealership-platform/internal/inbox"
	"github.com/Sai2266/dealership-platform/internal/index"
	"github.com/Sai2266/dealership-platform/internal/navguard"
	"github.com/Sai2266/dealership-platform/internal/session"
	"github.com/Sai2266/dealership-platform/internal/storage"
	"github.com/Sai2266/dealership-platform/internal/uploader"
)

const indexFile = "documents.db"

// App holds the wired core components.
type App struct {
	cfg    *Config
	logger *slog.Logger
	notify func(string)

	Sessions  *session.Store
	Guard     *navguard.Guard
	Client    *apiclient.Client
	Docs      *docrepo.Repository
	Uploads   *uploader.Coordinator
	Index     *index.DB
	Downloads storage.Provider
}

// NewApp builds the application from options. The config option is
// required.
func NewApp(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}
	if a.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.cfg

	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(a.logger)

	if a.notify == nil {
		a.notify = func(msg string) { fmt.Fprintln(os.Stderr, msg) }
	}

	// Ensure local directories exist.
	for _, dir := range []string{cfg.State.Dir, cfg.Downloads.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	stateFS, err := storage.NewFS(cfg.State.Dir)
	if err != nil {
		return nil, fmt.Errorf("init state storage: %w", err)
	}
	a.Downloads, err = storage.NewFS(cfg.Downloads.Dir)
	if err != nil {
		return nil, fmt.Errorf("init download storage: %w", err)
	}

	a.Sessions = session.NewStore(stateFS)
	a.Guard = navguard.New(a.Sessions)
	if _, ok := a.Sessions.Current(); ok {
		a.Guard.Navigate(navguard.DestDashboard)
	}

	a.Client = apiclient.New(cfg.API.BaseURL, cfg.API.Timeout, a.Sessions)
	a.Docs = docrepo.New(a.Client, a.Sessions, a.onSessionLost)
	a.Uploads = uploader.New(a.Client, a.Sessions, a.onSessionLost)

	a.Index, err = index.Open(filepath.Join(cfg.State.Dir, indexFile))
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	return a, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.Index != nil {
		return a.Index.Close()
	}
	return nil
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// onSessionLost runs exactly once per session, when any operation comes
// back unauthorized. Notice first, then the redirect to the auth entry
// point; the guard makes repeated redirects a no-op.
func (a *App) onSessionLost() {
	a.notify("Session expired - please login again")
	a.Guard.Navigate(navguard.DestAuth)
}

// Enter gates a protected view on session validity. It returns an error
// telling the user to log in when the guard redirects to the auth entry.
func (a *App) Enter(dest navguard.Destination) error {
	if resolved, _ := a.Guard.Navigate(dest); resolved != dest {
		return fmt.Errorf("not logged in - run 'dealerdocs login' first")
	}
	return nil
}

// RunInbox watches the configured scan folder, uploading dropped documents
// until a shutdown signal arrives.
func (a *App) RunInbox(ctx context.Context) error {
	if a.cfg.Inbox.Path == "" {
		return fmt.Errorf("inbox path is not configured")
	}
	if err := a.Enter(navguard.DestUpload); err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.Inbox.Path, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return inbox.Watch(gCtx, a.Uploads, a.Index, a.cfg.Inbox.Path, a.logger, func(path string, _ apiclient.UploadResult, err error) {
			if err == nil {
				fmt.Printf("uploaded %s\n", filepath.Base(path))
			}
		})
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.logger.Info("received shutdown signal", slog.String("signal", sig.String()))
			return context.Canceled
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
