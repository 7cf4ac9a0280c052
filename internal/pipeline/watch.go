package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/meshexport/internal/assets"
)

// ErrWatchingOutputDir is returned when a watched directory is the output
// directory. Events there are ignored, so the watcher would never export.
var ErrWatchingOutputDir = errors.New("watched directory is the output directory")

// Watcher re-exports MESH files when they are created or written.
type Watcher struct {
	runner   *Runner
	fs       *fsnotify.Watcher
	debounce time.Duration
	outDir   string

	// OnExport, if set, is called from the Run goroutine after each export.
	OnExport func(Outcome)
}

// NewWatcher starts watching dirs (non-recursively). Events are collected
// from this point on; call Run to process them.
func (r *Runner) NewWatcher(dirs []string, debounce time.Duration) (*Watcher, error) {
	outDir, err := filepath.Abs(r.OutDir)
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if samePath(d, outDir) {
			return nil, fmt.Errorf("%w: %s", ErrWatchingOutputDir, d)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", d, err)
		}
	}

	return &Watcher{
		runner:   r,
		fs:       fsw,
		debounce: debounce,
		outDir:   outDir,
	}, nil
}

// Run processes events until ctx is done. Bursts of writes to one file are
// coalesced into a single export after the debounce interval.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	log := w.runner.logger()
	d := newDebouncer(w.debounce)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.wants(e.Name) {
				continue
			}
			d.touch(ctx, e.Name)

		case p := <-d.ready:
			if !d.take(p) {
				continue
			}
			w.runner.Assets.Invalidate(p.path)
			out := w.runner.ExportFile(p.path)
			hits, misses := w.runner.Assets.Cache().Stats()
			log.Debug("asset cache", zap.Int("hits", hits), zap.Int("misses", misses))
			if w.OnExport != nil {
				w.OnExport(out)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

// pendingExport is one scheduled export. Its identity is the token that
// tells a current firing from a stale one.
type pendingExport struct {
	path  string
	timer *time.Timer
}

// debouncer schedules at most one export per path. It is owned by the Run
// goroutine; only the timer callbacks run elsewhere, and they only send.
type debouncer struct {
	delay   time.Duration
	pending map[string]*pendingExport
	ready   chan *pendingExport
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pendingExport),
		ready:   make(chan *pendingExport),
	}
}

// touch (re)starts the timer for path. A timer that already fired is
// replaced, so its delivery will be dropped by take.
func (d *debouncer) touch(ctx context.Context, path string) {
	if p, ok := d.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(d.delay)
		return
	}
	p := &pendingExport{path: path}
	d.pending[path] = p
	p.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.ready <- p:
		case <-ctx.Done():
		}
	})
}

// take reports whether p is the current export for its path and, if so,
// clears it.
func (d *debouncer) take(p *pendingExport) bool {
	if d.pending[p.path] != p {
		return false
	}
	delete(d.pending, p.path)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

// wants reports whether path is a MESH input outside the output directory.
func (w *Watcher) wants(path string) bool {
	if !assets.IsMeshFile(path) {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(abs, w.outDir+string(filepath.Separator))
}
