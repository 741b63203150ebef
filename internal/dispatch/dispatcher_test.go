package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/profile"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *fakeClock                   { return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }
func keyEvent(vk int, r event.Reason) event.Descriptor {
	return event.Descriptor{SourceID: 1, ControlType: event.ControlKeyboard, Data: vk, Reason: r}
}

func stroke(vk int) action.KeyStroke { return action.KeyStroke{VirtualKey: vk} }

func setup(t *testing.T) (*profile.Profile, *action.EffectLog, *Dispatcher, *fakeClock) {
	t.Helper()
	p := profile.New("test")
	if _, err := p.AddSource(profile.NewKeyboardSource(1, "Keyboard")); err != nil {
		t.Fatal(err)
	}
	out := action.NewEffectLog(0)
	d := New(p, out, nil)
	clock := newClock()
	d.SetClock(clock.now)
	return p, out, d, clock
}

func bind(p *profile.Profile, s event.LogicalState, desc event.Descriptor, actions ...action.Action) *action.ActionList {
	l := p.ActionList(s, desc)
	l.Add(actions...)
	return l
}

func effects(out *action.EffectLog) string {
	var parts []string
	for _, e := range out.Effects() {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func TestHandleInstantList(t *testing.T) {
	p, out, d, _ := setup(t)
	bind(p, event.DefaultState(), keyEvent('A', event.ReasonPressed),
		&action.PressKeyAction{Key: stroke('B')},
		&action.TypeTextAction{Text: "hi"},
	)

	if !d.Handle(keyEvent('A', event.ReasonPressed)) {
		t.Fatal("Handle() = false, want true")
	}
	if got, want := effects(out), `key-down B, key-up B, type "hi"`; got != want {
		t.Errorf("effects = %s, want %s", got, want)
	}
	if n := len(d.Active()); n != 0 {
		t.Errorf("len(Active()) = %d, want 0", n)
	}
}

func TestHandleUnbound(t *testing.T) {
	p, out, d, _ := setup(t)
	bind(p, event.DefaultState(), keyEvent('A', event.ReasonReleased))

	tests := []struct {
		name string
		desc event.Descriptor
	}{
		{"no binding", keyEvent('Z', event.ReasonPressed)},
		{"empty list", keyEvent('A', event.ReasonReleased)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d.Handle(tt.desc) {
				t.Error("Handle() = true, want false")
			}
		})
	}
	if len(out.Effects()) != 0 {
		t.Errorf("effects = %s, want none", effects(out))
	}

	d.SetProfile(nil)
	if d.Handle(keyEvent('A', event.ReasonPressed)) {
		t.Error("Handle() without profile = true, want false")
	}
}

func TestReleaseStopsHeldKey(t *testing.T) {
	p, out, d, _ := setup(t)
	bind(p, event.DefaultState(), keyEvent('A', event.ReasonPressed),
		&action.HoldKeyAction{Key: stroke('W')},
	)

	d.Handle(keyEvent('A', event.ReasonPressed))
	if n := len(d.Active()); n != 1 {
		t.Fatalf("len(Active()) after press = %d, want 1", n)
	}

	d.Handle(keyEvent('A', event.ReasonRepeated))
	if n := len(d.Active()); n != 1 {
		t.Errorf("len(Active()) after repeat = %d, want 1", n)
	}

	d.Cycle()
	d.Handle(keyEvent('A', event.ReasonReleased))
	if n := len(d.Active()); n != 0 {
		t.Errorf("len(Active()) after release = %d, want 0", n)
	}
	if got, want := effects(out), "key-down W, key-up W"; got != want {
		t.Errorf("effects = %s, want %s", got, want)
	}
}

func TestOtherControlKeepsHeldKey(t *testing.T) {
	p, out, d, _ := setup(t)
	bind(p, event.DefaultState(), keyEvent('A', event.ReasonPressed),
		&action.HoldKeyAction{Key: stroke('W')},
	)
	bind(p, event.DefaultState(), keyEvent('B', event.ReasonPressed),
		&action.PressKeyAction{Key: stroke('X')},
	)

	d.Handle(keyEvent('A', event.ReasonPressed))
	d.Handle(keyEvent('B', event.ReasonPressed))
	if n := len(d.Active()); n != 1 {
		t.Errorf("len(Active()) = %d, want 1", n)
	}

	d.StopAll()
	if got, want := effects(out), "key-down W, key-down X, key-up X, key-up W"; got != want {
		t.Errorf("effects = %s, want %s", got, want)
	}
}

func TestCycleRunsSeriesAfterWait(t *testing.T) {
	p, out, d, clock := setup(t)
	bind(p, event.DefaultState(), keyEvent('A', event.ReasonPressed),
		&action.PressKeyAction{Key: stroke('X')},
		&action.WaitAction{Duration: 50 * time.Millisecond},
		&action.PressKeyAction{Key: stroke('Y')},
	)

	d.Handle(keyEvent('A', event.ReasonPressed))
	if got, want := effects(out), "key-down X, key-up X"; got != want {
		t.Fatalf("effects after start = %s, want %s", got, want)
	}

	clock.advance(20 * time.Millisecond)
	if n := d.Cycle(); n != 1 {
		t.Errorf("Cycle() at 20ms = %d, want 1", n)
	}
	if len(out.Effects()) != 2 {
		t.Errorf("effects at 20ms = %s, want no new effects", effects(out))
	}

	clock.advance(40 * time.Millisecond)
	if n := d.Cycle(); n != 0 {
		t.Errorf("Cycle() at 60ms = %d, want 0", n)
	}
	if got, want := effects(out), "key-down X, key-up X, key-down Y, key-up Y"; got != want {
		t.Errorf("effects at 60ms = %s, want %s", got, want)
	}
}

func TestStateChangeIsDeferred(t *testing.T) {
	p, out, d, _ := setup(t)
	gaming := p.AddMode("Gaming")
	gamingState := event.LogicalState{ModeID: gaming.ID}

	bind(p, event.DefaultState(), keyEvent('H', event.ReasonPressed),
		&action.HoldKeyAction{Key: stroke('S')},
	)
	bind(p, event.DefaultState(), keyEvent('M', event.ReasonPressed),
		&action.ChangeModeAction{ModeID: gaming.ID},
		&action.TypeTextAction{Text: "old"},
	)
	bind(p, gamingState, keyEvent('M', event.ReasonPressed),
		&action.TypeTextAction{Text: "new"},
	)

	var transitions []string
	d.OnStateChange = func(from, to event.LogicalState) {
		transitions = append(transitions, from.String()+" -> "+to.String())
	}

	d.Handle(keyEvent('H', event.ReasonPressed))
	d.Handle(keyEvent('M', event.ReasonPressed))

	if got := d.State(); got != gamingState {
		t.Errorf("State() = %v, want %v", got, gamingState)
	}
	if n := len(d.Active()); n != 0 {
		t.Errorf("len(Active()) after transition = %d, want 0", n)
	}
	if got, want := effects(out), `key-down S, type "old", key-up S`; got != want {
		t.Errorf("effects = %s, want %s", got, want)
	}
	if len(transitions) != 1 || transitions[0] != "0/0/0 -> 1/0/0" {
		t.Errorf("transitions = %v, want [0/0/0 -> 1/0/0]", transitions)
	}

	out.Reset()
	d.Handle(keyEvent('M', event.ReasonPressed))
	if got, want := effects(out), `type "new"`; got != want {
		t.Errorf("effects in Gaming = %s, want %s", got, want)
	}
}

func TestChangeStateMergesComponents(t *testing.T) {
	_, _, d, _ := setup(t)
	d.SetState(event.LogicalState{ModeID: 2, AppID: 3, PageID: 4})

	d.begin()
	d.ChangeState(event.LogicalState{ModeID: event.NoneID, AppID: event.NoneID, PageID: 9})
	d.ChangeState(event.LogicalState{ModeID: 5, AppID: event.NoneID, PageID: event.NoneID})
	if got := d.State(); got.PageID != 4 {
		t.Errorf("State() before end = %v, want unchanged", got)
	}
	d.end()

	want := event.LogicalState{ModeID: 5, AppID: 3, PageID: 9}
	if got := d.State(); got != want {
		t.Errorf("State() = %v, want %v", got, want)
	}
}

func TestSetProfileStopsActive(t *testing.T) {
	p, out, d, _ := setup(t)
	bind(p, event.DefaultState(), keyEvent('A', event.ReasonPressed),
		&action.HoldKeyAction{Key: stroke('W')},
	)
	d.Handle(keyEvent('A', event.ReasonPressed))

	next := profile.New("next")
	d.SetProfile(next)
	if d.Profile() != next {
		t.Error("Profile() did not return the new profile")
	}
	if got, want := effects(out), "key-down W, key-up W"; got != want {
		t.Errorf("effects = %s, want %s", got, want)
	}
}

func TestRun(t *testing.T) {
	p, out, d, _ := setup(t)
	bind(p, event.DefaultState(), keyEvent('A', event.ReasonPressed),
		&action.HoldKeyAction{Key: stroke('W')},
	)

	events := make(chan event.Descriptor, 1)
	events <- keyEvent('A', event.ReasonPressed)
	close(events)

	steps := 0
	err := d.Run(context.Background(), Inputs{
		Events:    events,
		Interval:  time.Millisecond,
		AfterStep: func() { steps++ },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if steps < 1 {
		t.Errorf("steps = %d, want at least 1", steps)
	}
	if got, want := effects(out), "key-down W, key-up W"; got != want {
		t.Errorf("effects = %s, want %s", got, want)
	}
}

func TestRunContextCancel(t *testing.T) {
	_, _, d, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	profiles := make(chan *profile.Profile, 1)
	next := profile.New("reloaded")
	profiles <- next

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, Inputs{
			Events:    make(chan event.Descriptor),
			Profiles:  profiles,
			AfterStep: cancel,
		})
	}()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if d.Profile() != next {
		t.Error("Run did not apply the reloaded profile")
	}
}
