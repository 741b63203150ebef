// Package terminal is a tcell front-end for trying out a profile.
//
// Keyboard and mouse input from the terminal is translated into event
// descriptors for the profile's keyboard and mouse sources. The screen
// shows the current logical state and the effects the dispatched actions
// would have performed.
package terminal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/logging"
	"github.com/dshills/inputmap/internal/profile"
)

// Terminal owns a tcell screen. Event translation runs on the Events
// goroutine; Draw and the setters may be called from another goroutine.
type Terminal struct {
	screen     tcell.Screen
	effects    *action.EffectLog
	logger     *logging.Logger
	translator *Translator

	// mu guards the screen and the translator.
	mu sync.Mutex
}

// View is what Draw shows.
type View struct {
	Profile *profile.Profile
	State   event.LogicalState
	Active  int
}

// New creates a front-end on screen for p. Effects are read from effects
// when drawing.
func New(screen tcell.Screen, p *profile.Profile, effects *action.EffectLog, logger *logging.Logger) *Terminal {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Terminal{
		screen:     screen,
		effects:    effects,
		logger:     logger.WithComponent("terminal"),
		translator: NewTranslator(p),
	}
}

// NewScreen creates a front-end on the controlling terminal.
func NewScreen(p *profile.Profile, effects *action.EffectLog, logger *logging.Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return New(screen, p, effects, logger), nil
}

// Init initializes the screen and enables mouse reporting.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnableMouse()
	t.screen.HideCursor()
	t.translator.SetSize(t.screen.Size())
	return nil
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

// SetProfile switches translation to the sources and regions of p.
func (t *Terminal) SetProfile(p *profile.Profile) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.translator.SetProfile(p)
}

// SetState sets the logical state used to pick visible regions.
func (t *Terminal) SetState(s event.LogicalState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.translator.SetState(s)
}

// SetHoldTimeout sets how long a key stays held without a repeat.
func (t *Terminal) SetHoldTimeout(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d > 0 {
		t.translator.HoldTimeout = d
	}
}

// Events starts reading the terminal and returns the translated events.
// The channel is closed when ctx is done or the user presses Ctrl-C;
// pending key releases are delivered first.
func (t *Terminal) Events(ctx context.Context) <-chan event.Descriptor {
	out := make(chan event.Descriptor, 64)
	raw := make(chan tcell.Event, 16)
	done := make(chan struct{})

	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case raw <- ev:
			case <-done:
				return
			}
		}
	}()

	go func() {
		defer close(out)
		defer close(done)

		ticker := time.NewTicker(t.expireInterval())
		defer ticker.Stop()

		send := func(descs []event.Descriptor) bool {
			for _, d := range descs {
				select {
				case out <- d:
				case <-ctx.Done():
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return

			case ev := <-raw:
				if isQuit(ev) {
					t.mu.Lock()
					released := t.translator.Expire(time.Now().Add(t.translator.HoldTimeout))
					t.mu.Unlock()
					send(released)
					return
				}
				t.mu.Lock()
				descs := t.translator.Translate(ev, time.Now())
				t.mu.Unlock()
				for _, d := range descs {
					t.logger.Debug("event %s", d)
				}
				if !send(descs) {
					return
				}

			case now := <-ticker.C:
				t.mu.Lock()
				descs := t.translator.Expire(now)
				t.mu.Unlock()
				if !send(descs) {
					return
				}
			}
		}
	}()

	return out
}

func (t *Terminal) expireInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	interval := t.translator.HoldTimeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

func isQuit(ev tcell.Event) bool {
	k, ok := ev.(*tcell.EventKey)
	return ok && k.Key() == tcell.KeyCtrlC
}

var (
	styleTitle  = tcell.StyleDefault.Bold(true)
	styleLabel  = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleEffect = tcell.StyleDefault
	styleHint   = tcell.StyleDefault.Dim(true)
)

// Draw redraws the screen.
func (t *Terminal) Draw(v View) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
	width, height := t.screen.Size()
	if height < 4 {
		t.screen.Show()
		return
	}

	name := "(none)"
	if v.Profile != nil {
		name = v.Profile.Name
	}
	t.text(0, 0, width, styleTitle, "inputmap: "+name)
	t.text(0, 1, width, styleLabel, "state: "+stateLabel(v.Profile, v.State))
	t.text(0, 2, width, styleLabel, fmt.Sprintf("ongoing lists: %d  held keys: %d", v.Active, t.translator.Held()))

	rows := height - 5
	if t.effects != nil && rows > 0 {
		effects := t.effects.Effects()
		if len(effects) > rows {
			effects = effects[len(effects)-rows:]
		}
		for i, e := range effects {
			t.text(0, 4+i, width, styleEffect, e.String())
		}
	}
	t.text(0, height-1, width, styleHint, "Ctrl-C quits")
	t.screen.Show()
}

func (t *Terminal) text(x, y, width int, style tcell.Style, s string) {
	for _, r := range s {
		if x >= width {
			return
		}
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// stateLabel names each state component, falling back to the ID.
func stateLabel(p *profile.Profile, s event.LogicalState) string {
	if p == nil {
		return s.String()
	}
	label := func(name string, ok bool, id int64) string {
		if ok && name != "" {
			return name
		}
		return fmt.Sprintf("#%d", id)
	}
	mode, okMode := p.ModeName(s.ModeID)
	app, okApp := p.AppName(s.AppID)
	page, okPage := p.PageName(s.PageID)
	return fmt.Sprintf("mode %s, app %s, page %s",
		label(mode, okMode, s.ModeID),
		label(app, okApp, s.AppID),
		label(page, okPage, s.PageID))
}
