// Package dispatch drives action lists over dispatch cycles.
//
// A Dispatcher resolves incoming event descriptors against the current
// profile and logical state, starts the bound action list and keeps
// continuing ongoing lists once per cycle until they complete or are
// stopped. It is single-threaded: Handle, Cycle and the state setters must
// be called from one goroutine, typically the one running Run.
package dispatch

import (
	"context"
	"time"

	"github.com/dshills/inputmap/internal/action"
	"github.com/dshills/inputmap/internal/event"
	"github.com/dshills/inputmap/internal/logging"
	"github.com/dshills/inputmap/internal/profile"
)

// DefaultInterval is the cycle interval used when none is given.
const DefaultInterval = 20 * time.Millisecond

// Dispatcher executes the action lists of a profile.
type Dispatcher struct {
	action.Output

	profile *profile.Profile
	logger  *logging.Logger

	state   event.LogicalState
	pending *event.LogicalState
	active  []*action.ActionList

	clock func() time.Time
	now   time.Time

	// OnStateChange is called after the logical state changes.
	OnStateChange func(from, to event.LogicalState)
}

// New creates a dispatcher sending effects to out. The logical state starts
// at the Default mode, app and page.
func New(p *profile.Profile, out action.Output, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{
		Output:  out,
		profile: p,
		logger:  logger.WithComponent("dispatch"),
		state:   event.DefaultState(),
		clock:   time.Now,
	}
}

// SetClock replaces the time source. It is meant for tests.
func (d *Dispatcher) SetClock(clock func() time.Time) {
	d.clock = clock
}

// ChangeState records a state change requested by an action. Components
// set to event.NoneID keep their current value. The change takes effect at
// the end of the current step.
func (d *Dispatcher) ChangeState(target event.LogicalState) {
	next := d.state
	if d.pending != nil {
		next = *d.pending
	}
	if target.ModeID != event.NoneID {
		next.ModeID = target.ModeID
	}
	if target.AppID != event.NoneID {
		next.AppID = target.AppID
	}
	if target.PageID != event.NoneID {
		next.PageID = target.PageID
	}
	d.pending = &next
}

// Now returns the time of the current step.
func (d *Dispatcher) Now() time.Time {
	if d.now.IsZero() {
		return d.clock()
	}
	return d.now
}

// State returns the current logical state.
func (d *Dispatcher) State() event.LogicalState {
	return d.state
}

// SetState stops every ongoing list and switches to s.
func (d *Dispatcher) SetState(s event.LogicalState) {
	d.pending = nil
	d.transition(s)
}

// Profile returns the profile being dispatched.
func (d *Dispatcher) Profile() *profile.Profile {
	return d.profile
}

// SetProfile stops every ongoing list and dispatches p from now on. The
// logical state is kept.
func (d *Dispatcher) SetProfile(p *profile.Profile) {
	d.StopAll()
	d.pending = nil
	d.profile = p
	if p != nil {
		d.logger.Info("profile %q active", p.Name)
	}
}

// Handle dispatches one event and reports whether a non-empty list was
// bound to it.
//
// Ongoing lists started by the same control are stopped first, so a
// Released event ends what its Pressed event began. Repeated events leave
// them running.
func (d *Dispatcher) Handle(desc event.Descriptor) bool {
	d.begin()
	defer d.end()

	if desc.Reason != event.ReasonRepeated {
		d.stopControl(desc.ControlID())
	}
	if d.profile == nil {
		return false
	}

	l := d.profile.GetActionsForState(d.state, true).Get(desc.ToID())
	if l == nil || l.IsEmpty() {
		d.logger.Debug("unbound event %s in state %s", desc, d.state)
		return false
	}

	d.logger.Debug("start %s in state %s", l, d.state)
	l.Start(d, action.NewEventArgs(desc, d.state, d.now))
	if l.IsOngoing() {
		d.track(l)
	}
	return true
}

// Cycle continues every ongoing list once and returns how many are still
// ongoing.
func (d *Dispatcher) Cycle() int {
	d.begin()
	defer d.end()

	kept := d.active[:0]
	for _, l := range d.active {
		l.Continue(d)
		if l.IsOngoing() {
			kept = append(kept, l)
		}
	}
	for i := len(kept); i < len(d.active); i++ {
		d.active[i] = nil
	}
	d.active = kept
	return len(d.active)
}

// Active returns the ongoing lists in start order.
func (d *Dispatcher) Active() []*action.ActionList {
	out := make([]*action.ActionList, len(d.active))
	copy(out, d.active)
	return out
}

// StopAll stops every ongoing list.
func (d *Dispatcher) StopAll() {
	if len(d.active) == 0 {
		return
	}
	active := d.active
	d.active = nil
	for _, l := range active {
		l.Stop(d)
	}
}

func (d *Dispatcher) begin() {
	d.now = d.clock()
}

func (d *Dispatcher) end() {
	if d.pending != nil {
		next := *d.pending
		d.pending = nil
		d.transition(next)
	}
	d.now = time.Time{}
}

func (d *Dispatcher) transition(next event.LogicalState) {
	if next == d.state {
		return
	}
	d.StopAll()
	prev := d.state
	d.state = next
	d.logger.Info("state %s -> %s", prev, next)
	if d.OnStateChange != nil {
		d.OnStateChange(prev, next)
	}
}

func (d *Dispatcher) track(l *action.ActionList) {
	for _, a := range d.active {
		if a == l {
			return
		}
	}
	d.active = append(d.active, l)
}

func (d *Dispatcher) stopControl(id event.Key) {
	kept := d.active[:0]
	var stopped []*action.ActionList
	for _, l := range d.active {
		if l.Key().ControlID() == id {
			stopped = append(stopped, l)
			continue
		}
		kept = append(kept, l)
	}
	if len(stopped) == 0 {
		return
	}
	for i := len(kept); i < len(d.active); i++ {
		d.active[i] = nil
	}
	d.active = kept
	for _, l := range stopped {
		l.Stop(d)
	}
}

// Inputs are the channels a Run loop consumes.
type Inputs struct {
	// Events delivers input events. Run returns when it is closed.
	Events <-chan event.Descriptor

	// Profiles delivers replacement profiles, for example after the
	// profile file changed on disk. May be nil.
	Profiles <-chan *profile.Profile

	// Interval is the cycle interval. Zero means DefaultInterval.
	Interval time.Duration

	// AfterStep is called on the loop goroutine after every handled event,
	// cycle with ongoing lists and profile swap. May be nil.
	AfterStep func()
}

// Run dispatches events and runs cycles until ctx is done or the event
// channel is closed. Ongoing lists are stopped before it returns.
func (d *Dispatcher) Run(ctx context.Context, in Inputs) error {
	interval := in.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer d.StopAll()

	step := func() {
		if in.AfterStep != nil {
			in.AfterStep()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case desc, ok := <-in.Events:
			if !ok {
				return nil
			}
			d.Handle(desc)
			step()

		case p, ok := <-in.Profiles:
			if !ok {
				in.Profiles = nil
				continue
			}
			d.SetProfile(p)
			step()

		case <-ticker.C:
			if len(d.active) == 0 {
				continue
			}
			d.Cycle()
			step()
		}
	}
}

var _ action.Handler = (*Dispatcher)(nil)
