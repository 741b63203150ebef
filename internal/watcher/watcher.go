// Package watcher reports changes to a profile file on disk.
//
// A ProfileWatcher watches the directory holding the file, so edits that
// replace the file by rename are seen as well as in-place writes. Rapid
// successive changes are coalesced into one Change after a quiet period.
package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/inputmap/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by operations on a closed watcher.
var ErrClosed = errors.New("watcher is closed")

// DefaultDelay is the quiet period before a change is reported.
const DefaultDelay = 150 * time.Millisecond

// Op is a set of file operations.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// Has reports whether op includes o.
func (op Op) Has(o Op) bool { return op&o == o }

// String lists the operations, such as "WRITE|RENAME".
func (op Op) String() string {
	var parts []string
	for _, o := range []struct {
		op   Op
		name string
	}{{OpCreate, "CREATE"}, {OpWrite, "WRITE"}, {OpRemove, "REMOVE"}, {OpRename, "RENAME"}} {
		if op.Has(o.op) {
			parts = append(parts, o.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Change is a coalesced change of the watched file.
type Change struct {
	Path string
	Op   Op
	Time time.Time
}

// Removed reports whether the file is gone after the change.
func (c Change) Removed() bool {
	if !c.Op.Has(OpRemove) && !c.Op.Has(OpRename) {
		return false
	}
	_, err := os.Stat(c.Path)
	return err != nil
}

// ProfileWatcher watches one profile file.
type ProfileWatcher struct {
	fsw    *fsnotify.Watcher
	path   string
	delay  time.Duration
	logger *logging.Logger

	mu        sync.Mutex
	pending   Op
	timer     *time.Timer
	muteUntil time.Time
	closed    bool
	changes   chan Change
	errors    chan error
	closeCh   chan struct{}
	loopDone  sync.WaitGroup
}

// New starts watching path. A delay of 0 uses DefaultDelay.
func New(path string, delay time.Duration, logger *logging.Logger) (*ProfileWatcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = logging.Nop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &ProfileWatcher{
		fsw:     fsw,
		path:    abs,
		delay:   delay,
		logger:  logger.WithComponent("watcher").WithField("path", abs),
		changes: make(chan Change, 8),
		errors:  make(chan error, 8),
		closeCh: make(chan struct{}),
	}
	w.loopDone.Add(1)
	go w.loop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *ProfileWatcher) Path() string { return w.path }

// Changes returns the channel of coalesced changes.
func (w *ProfileWatcher) Changes() <-chan Change { return w.changes }

// Errors returns the channel of watch errors.
func (w *ProfileWatcher) Errors() <-chan error { return w.errors }

// Mute drops changes observed during d. Used around the program's own
// saves so they do not trigger a reload.
func (w *ProfileWatcher) Mute(d time.Duration) {
	w.mu.Lock()
	w.muteUntil = time.Now().Add(d)
	w.mu.Unlock()
}

// Close stops watching and closes the channels.
func (w *ProfileWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.loopDone.Wait()
	w.mu.Lock()
	close(w.changes)
	close(w.errors)
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *ProfileWatcher) loop() {
	defer w.loopDone.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *ProfileWatcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	op := convertOp(ev.Op)
	if op == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || time.Now().Before(w.muteUntil) {
		return
	}
	w.pending |= op
	if w.timer == nil {
		w.timer = time.AfterFunc(w.delay, w.fire)
		return
	}
	w.timer.Reset(w.delay)
}

func (w *ProfileWatcher) fire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	op := w.pending
	w.pending = 0
	if w.closed || op == 0 {
		return
	}

	w.logger.Debug("profile changed: %s", op)
	select {
	case w.changes <- Change{Path: w.path, Op: op, Time: time.Now()}:
	default:
		w.logger.Warn("change channel full, dropping %s", op)
	}
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
