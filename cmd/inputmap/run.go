package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/dispatch"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/profile"
	"github.com/dshills/inputmap/internal/terminal"
	"github.com/dshills/inputmap/internal/watcher"
)

// reloadDelay debounces editor saves of the watched profile.
const reloadDelay = 200 * time.Millisecond

// run dispatches terminal input through a profile and shows the effects
// instead of performing them.
func (c *cli) run(args []string) error {
	fs := c.flagSet("run", "[-hold duration] [profile]")
	hold := fs.Duration("hold", terminal.DefaultHoldTimeout, "How long a key counts as held without a repeat")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	name := c.cfg.LastProfile
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}
	if name == "" {
		fs.Usage()
		return errUsage
	}
	path := c.cfg.ProfilePath(name)

	loaded, err := c.store.Load(path)
	if err != nil {
		return err
	}
	p := loaded.Profile

	// The screen belongs to tcell from here on.
	logFile, err := c.openLog()
	if err != nil {
		return err
	}
	defer logFile.Close()
	c.logger.SetOutput(logFile)
	defer c.logger.SetOutput(os.Stderr)

	effects := action.NewEffectLog(256)
	d := dispatch.New(p, effects, c.logger)

	term, err := terminal.NewScreen(p, effects, c.logger)
	if err != nil {
		return err
	}
	term.SetHoldTimeout(*hold)
	if err := term.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer term.Shutdown()

	d.OnStateChange = func(_, to event.LogicalState) { term.SetState(to) }

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiles := make(chan *profile.Profile, 1)
	if c.cfg.WatchProfile {
		w, err := watcher.New(path, reloadDelay, c.logger)
		if err != nil {
			c.logger.Warn("not watching profile: %v", err)
		} else {
			defer w.Close()
			go c.reload(ctx, w, term, profiles)
		}
	}

	draw := func() {
		term.Draw(terminal.View{Profile: d.Profile(), State: d.State(), Active: len(d.Active())})
	}
	draw()

	err = d.Run(ctx, dispatch.Inputs{
		Events:    term.Events(ctx),
		Profiles:  profiles,
		Interval:  c.cfg.CycleInterval(),
		AfterStep: draw,
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	c.cfg.LastProfile = name
	c.cfg.Save()
	return nil
}

// reload loads the profile again after every change on disk and hands it
// to the dispatch loop.
func (c *cli) reload(ctx context.Context, w *watcher.ProfileWatcher, term *terminal.Terminal, profiles chan<- *profile.Profile) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			c.logger.Warn("watching profile: %v", err)
		case change, ok := <-w.Changes():
			if !ok {
				return
			}
			if change.Removed() {
				c.logger.Warn("profile %s %s, keeping the loaded copy", change.Path, change.Op)
				continue
			}
			loaded, err := c.store.Load(change.Path)
			if err != nil {
				c.logger.Error("reloading profile: %v", err)
				continue
			}
			term.SetProfile(loaded.Profile)
			select {
			case profiles <- loaded.Profile:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *cli) openLog() (*os.File, error) {
	dir := c.cfg.Dirs().UserDataDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "inputmap.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	return f, nil
}
