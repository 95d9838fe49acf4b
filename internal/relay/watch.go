package relay

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reindexes the note folder after external edits settle. Events are
// debounced because editors fire bursts of writes, temp files and renames
// for a single save.
type Watcher struct {
	store    *Store
	idx      *Index
	debounce time.Duration
	log      *slog.Logger
}

func NewWatcher(store *Store, idx *Index, debounce time.Duration, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{store: store, idx: idx, debounce: debounce, log: log}
}

// Run blocks until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	dirs, err := watchTargets(w.store.dir)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			return err
		}
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if dir := createdDir(event); dir != "" {
				if err := fsw.Add(dir); err != nil {
					w.log.Warn("watch subfolder failed", "path", dir, "error", err)
				}
			} else if !relevant(event) {
				continue
			}
			w.log.Debug("folder changed", "op", event.Op.String(), "path", event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-fire
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case <-fire:
			timer = nil
			fire = nil
			if err := w.idx.Rebuild(ctx, w.store); err != nil {
				w.log.Error("reindex failed", "error", err)
			} else {
				w.log.Info("reindexed after external change")
			}
		}
	}
}

// watchTargets lists the folder and every visible subfolder. List walks the
// whole tree, so the watcher has to cover it too; fsnotify does not recurse.
func watchTargets(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

// createdDir reports a freshly created visible directory, which needs its
// own watch. A moved-in folder may already hold notes, so the event also
// schedules a reindex.
func createdDir(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) {
		return ""
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return ""
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return ""
	}
	return event.Name
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := strings.ToLower(event.Name)
	return strings.HasSuffix(name, ".md")
}
