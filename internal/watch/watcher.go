// Package watch observes a process's received-submissions directory and
// reports candidate folders whose contents changed, so a long-running
// consolidation can re-collect only what moved.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cquispe/eoi-consolidator/constants"
)

type Config struct {
	Root     string        // the received-submissions directory (recursive)
	Debounce time.Duration // coalesce rapid write/rename bursts
}

// Start watches Root and emits the candidate folder (first-level directory
// under Root) for every eligible file that appears or changes. The channels
// close when ctx is cancelled.
func Start(ctx context.Context, cfg Config, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		return nil, nil, errors.New("watch root is required")
	}
	evCh := make(chan string, 64)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if cerr := w.Close(); cerr != nil {
				logger.Warn("watch.close_error", "error", cerr)
			}
		}()

		var timer *time.Timer
		var timerC <-chan time.Time
		pending := map[string]struct{}{}
		sendPending := func() {
			for folder := range pending {
				select {
				case evCh <- folder:
					delete(pending, folder)
				case <-ctx.Done():
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-timerC:
				sendPending()
				timerC = nil
			case e := <-w.Events:
				if e.Op&fsnotify.Create != 0 {
					// new candidate folders need their own watch
					_ = w.Add(e.Name)
				}
				if !eligible(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				folder, ok := candidateFolder(cfg.Root, e.Name)
				if !ok {
					continue
				}
				pending[folder] = struct{}{}
				if cfg.Debounce > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = time.NewTimer(cfg.Debounce)
					timerC = timer.C
				} else {
					sendPending()
				}
			case werr := <-w.Errors:
				logger.Error("watch.error", "error", werr)
				select {
				case errCh <- werr:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func eligible(path string) bool {
	name := filepath.Base(path)
	if constants.IsTempOfficeFile(name) {
		return false
	}
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(name))]
	return ok
}

// candidateFolder maps a changed file to its first-level folder under root.
func candidateFolder(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		return "", false
	}
	return filepath.Join(root, parts[0]), true
}
