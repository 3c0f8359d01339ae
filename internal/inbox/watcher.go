// Package inbox watches a scan folder and feeds newly dropped documents
// through the upload coordinator. Files are deduplicated by content
// checksum recorded in the local index, so a restart never re-uploads what
// was already sent.
package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Sai2266/dealership-platform/internal/apiclient"
	"github.com/Sai2266/dealership-platform/internal/checksum"
	"github.com/Sai2266/dealership-platform/internal/index"
	"github.com/Sai2266/dealership-platform/internal/models"
	"github.com/Sai2266/dealership-platform/internal/uploader"
)

// settleDelay is how long a file must sit quiet before it is considered
// fully written. Scanners copy in chunks; uploading mid-copy truncates.
const settleDelay = 500 * time.Millisecond

// ResultCallback is called after each attempted upload.
type ResultCallback func(path string, result apiclient.UploadResult, err error)

// Watch scans dir once, then processes fsnotify events until ctx is
// cancelled. It calls cb (if non-nil) after each attempted upload.
func Watch(ctx context.Context, coord *uploader.Coordinator, db index.DocIndex, dir string, logger *slog.Logger, cb ResultCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("inbox: started", slog.String("dir", dir))

	// Upload anything already sitting in the inbox.
	scanExisting(ctx, coord, db, dir, logger, cb)

	// Pending files wait out the settle delay before upload.
	pending := map[string]time.Time{}
	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("inbox: stopped")
			return nil

		case now := <-ticker.C:
			for path, due := range pending {
				if now.Before(due) {
					continue
				}
				delete(pending, path)
				process(ctx, coord, db, path, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				delete(pending, ev.Name)
				continue
			}
			if !models.AllowedFile(ev.Name) {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr != nil || info.IsDir() {
				continue
			}
			pending[ev.Name] = time.Now().Add(settleDelay)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// scanExisting uploads accepted files already present in the inbox.
func scanExisting(ctx context.Context, coord *uploader.Coordinator, db index.DocIndex, dir string, logger *slog.Logger, cb ResultCallback) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("inbox: initial scan failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !models.AllowedFile(e.Name()) {
			continue
		}
		process(ctx, coord, db, filepath.Join(dir, e.Name()), logger, cb)
	}
}

// process uploads one file unless its content was already sent.
func process(ctx context.Context, coord *uploader.Coordinator, db index.DocIndex, path string, logger *slog.Logger, cb ResultCallback) {
	sum, err := checksum.SumFile(path)
	if err != nil {
		logger.Warn("inbox: checksum failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	seen, err := db.SeenUpload(sum)
	if err != nil {
		logger.Warn("inbox: dedupe lookup failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if seen {
		logger.Debug("inbox: already uploaded", slog.String("path", path))
		return
	}

	if err := coord.Select([]string{path}); err != nil {
		logger.Warn("inbox: rejected", slog.String("path", path), slog.String("error", err.Error()))
		if cb != nil {
			cb(path, apiclient.UploadResult{}, err)
		}
		return
	}
	result, err := coord.Submit(ctx)
	if err != nil {
		logger.Warn("inbox: upload failed", slog.String("path", path), slog.String("error", err.Error()))
		if cb != nil {
			cb(path, apiclient.UploadResult{}, err)
		}
		return
	}

	if err := db.RecordUpload(sum, filepath.Base(path)); err != nil {
		logger.Warn("inbox: record failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	logger.Info("inbox: uploaded",
		slog.String("path", path),
		slog.Int("accepted", len(result.Uploaded)))
	if cb != nil {
		cb(path, result, nil)
	}
}
