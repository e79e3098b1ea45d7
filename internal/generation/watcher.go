package generation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long [DirWatcher] waits for a burst of file events
// to settle.
const DefaultDebounce = 2 * time.Second

// DirWatcher calls a function once a burst of changes to dataset or override
// files has settled. Dataset dumps rewrite many files at once, so a single
// callback follows the last event of a burst.
type DirWatcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	log      *slog.Logger
}

// watchedExt lists the file extensions whose changes matter.
var watchedExt = map[string]bool{".json": true, ".csv": true}

// NewDirWatcher watches every directory in dirs. Empty entries are ignored
// and duplicates are watched once.
func NewDirWatcher(dirs []string, debounce time.Duration, onChange func(), log *slog.Logger) (*DirWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("generation: watch: %w", err)
	}
	seen := map[string]bool{}
	for _, d := range dirs {
		if d == "" {
			continue
		}
		d = filepath.Clean(d)
		if seen[d] {
			continue
		}
		seen[d] = true
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("generation: watch %s: %w", d, err)
		}
	}
	return &DirWatcher{fw: fw, debounce: debounce, onChange: onChange, log: log}, nil
}

// Run delivers debounced change notifications until ctx is done, then
// closes the underlying watcher.
func (w *DirWatcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.log.Debug("data file changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("data dir watch error", "err", err)
		case <-fire:
			timer, fire = nil, nil
			w.onChange()
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return watchedExt[filepath.Ext(ev.Name)]
}
