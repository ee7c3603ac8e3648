package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/acmefin/policyscan/constants"
)

// WatchConfig configures a recursive directory watcher.
type WatchConfig struct {
	Roots       []string            // directories to watch (recursive)
	AllowedExts map[string]struct{} // nil -> constants.AllowedExtensions
	InitialScan bool                // if true, emit files already present under the roots
	Debounce    time.Duration       // coalesce rapid write/rename bursts
}

// Watcher emits paths of scan files appearing under the configured roots.
type Watcher struct {
	cfg    WatchConfig
	logger *slog.Logger
}

func NewWatcher(cfg WatchConfig, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = constants.AllowedExtensions
	}
	return &Watcher{cfg: cfg, logger: logger}
}

// Start begins watching. The returned path channel closes when ctx is
// cancelled. Existing files are emitted before Start returns when
// InitialScan is set.
func (w *Watcher) Start(ctx context.Context) (<-chan string, <-chan error, error) {
	if len(w.cfg.Roots) == 0 {
		return nil, nil, errors.New("no watch roots provided")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	paths := make(chan string, 256)
	errs := make(chan error, 1)

	for _, root := range w.cfg.Roots {
		if err := w.addRoot(fsw, root, paths); err != nil {
			w.logger.Error("failed to watch root", "root", root, "error", err)
			_ = fsw.Close()
			return nil, nil, err
		}
	}

	go w.run(ctx, fsw, paths, errs)
	return paths, errs, nil
}

func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root string, paths chan<- string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		if w.cfg.InitialScan && w.allowed(path) {
			select {
			case paths <- path:
			default:
			}
		}
		return nil
	})
}

func (w *Watcher) allowed(path string) bool {
	_, ok := w.cfg.AllowedExts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, paths chan string, errs chan error) {
	defer close(paths)
	defer close(errs)
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Warn("failed to close fsnotify watcher", "error", err)
		}
	}()

	var debounce <-chan time.Time
	pending := make(map[string]struct{})

	flush := func() {
		for p := range pending {
			select {
			case paths <- p:
			default:
			}
			delete(pending, p)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-debounce:
			debounce = nil
			flush()
		case e, ok := <-fsw.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				// a created directory needs watching too; Add on a plain
				// file is a no-op error we can ignore
				if err := fsw.Add(e.Name); err != nil {
					w.logger.Debug("skipping watch add", "path", e.Name, "error", err)
				}
			}
			if w.allowed(e.Name) && e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				pending[e.Name] = struct{}{}
				if w.cfg.Debounce > 0 {
					debounce = time.After(w.cfg.Debounce)
				} else {
					flush()
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
			select {
			case errs <- err:
			default:
			}
		}
	}
}
