package action

import (
	"fmt"
	"strings"

	"github.com/dshills/inputmap/internal/event"
	"github.com/google/uuid"
)

// ExecutionMode is the sequencing contract of an ActionList.
type ExecutionMode uint8

const (
	// Series runs actions as a pipeline: each action waits for the
	// previous one to complete.
	Series ExecutionMode = iota

	// Parallel starts every action at once.
	Parallel
)

// String returns the document name of the mode.
func (m ExecutionMode) String() string {
	if m == Parallel {
		return "Parallel"
	}
	return "Series"
}

// ParseExecutionMode parses a mode name. An empty string is Series.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch strings.ToLower(s) {
	case "", "series":
		return Series, nil
	case "parallel":
		return Parallel, nil
	}
	return Series, fmt.Errorf("%w: execution mode %q", ErrInvalidField, s)
}

// ActionList is the ordered set of actions bound to one logical state and
// event. It is owned by a single mapping table entry; resolved views share
// the same *ActionList, so execution state is visible through every view.
// ActionList is not safe for concurrent use.
type ActionList struct {
	// ID is the display ID assigned by renumbering. 0 for empty lists.
	ID int

	// State is the logical state the list is registered under.
	State event.LogicalState

	// Event is the event the list is registered under.
	Event event.Descriptor

	// Mode is the execution mode.
	Mode ExecutionMode

	actions []Action

	// started marks actions started during the current run. Edits keep it
	// aligned with actions so completed actions never run twice.
	started  []bool
	active   bool
	ongoing  bool
	instance uuid.UUID
	args     *EventArgs
}

// NewActionList creates an empty list for a state and event.
func NewActionList(state event.LogicalState, d event.Descriptor, mode ExecutionMode) *ActionList {
	return &ActionList{
		State: state,
		Event: d,
		Mode:  mode,
	}
}

// Key returns the event key the list is registered under.
func (l *ActionList) Key() event.Key {
	return l.Event.ToID()
}

// Len returns the number of actions.
func (l *ActionList) Len() int {
	return len(l.actions)
}

// IsEmpty reports whether the list has no actions.
func (l *ActionList) IsEmpty() bool {
	return l == nil || len(l.actions) == 0
}

// Actions returns a copy of the action slice.
func (l *ActionList) Actions() []Action {
	out := make([]Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// At returns the action at index i.
func (l *ActionList) At(i int) Action {
	return l.actions[i]
}

// Add appends actions.
func (l *ActionList) Add(actions ...Action) {
	l.actions = append(l.actions, actions...)
	if l.started != nil {
		l.started = append(l.started, make([]bool, len(actions))...)
	}
}

// Insert inserts an action at index i.
func (l *ActionList) Insert(i int, a Action) error {
	if i < 0 || i > len(l.actions) {
		return fmt.Errorf("insert index %d out of range [0,%d]", i, len(l.actions))
	}
	l.actions = append(l.actions, nil)
	copy(l.actions[i+1:], l.actions[i:])
	l.actions[i] = a
	if l.started != nil {
		// An action inserted ahead of the current position is skipped
		// for the rest of the run.
		skip := i < len(l.started) && l.started[i]
		l.started = append(l.started, false)
		copy(l.started[i+1:], l.started[i:])
		l.started[i] = skip
	}
	return nil
}

// Remove removes the action at index i.
func (l *ActionList) Remove(i int) error {
	if i < 0 || i >= len(l.actions) {
		return fmt.Errorf("remove index %d out of range [0,%d)", i, len(l.actions))
	}
	l.actions = append(l.actions[:i], l.actions[i+1:]...)
	if l.started != nil {
		l.started = append(l.started[:i], l.started[i+1:]...)
	}
	return nil
}

// Retain keeps only the actions for which keep returns true and reports how
// many were removed.
func (l *ActionList) Retain(keep func(Action) bool) int {
	kept := l.actions[:0]
	var started []bool
	if l.started != nil {
		started = l.started[:0]
	}
	for i, a := range l.actions {
		if keep(a) {
			kept = append(kept, a)
			if l.started != nil {
				started = append(started, l.started[i])
			}
		}
	}
	removed := len(l.actions) - len(kept)
	for i := len(kept); i < len(l.actions); i++ {
		l.actions[i] = nil
	}
	l.actions = kept
	l.started = started
	return removed
}

// IsActive reports whether the list is running for an event instance.
func (l *ActionList) IsActive() bool { return l.active }

// IsOngoing reports whether the list needs further dispatch cycles.
func (l *ActionList) IsOngoing() bool { return l.ongoing }

// Instance returns the event instance the list was last started for.
func (l *ActionList) Instance() uuid.UUID { return l.instance }

// Start runs the list for a new event instance.
//
// In Series mode actions are started in order until one reports ongoing;
// the remaining actions wait for Continue. In Parallel mode every action is
// started and the list is ongoing if any action is.
func (l *ActionList) Start(h Handler, args *EventArgs) {
	l.ongoing = false
	l.started = make([]bool, len(l.actions))
	l.args = args
	if args != nil {
		l.instance = args.Instance
	}

	for i, a := range l.actions {
		l.started[i] = true
		a.Start(h, args)
		if a.IsOngoing() {
			l.ongoing = true
			if l.Mode == Series {
				break
			}
		}
	}
	l.active = l.ongoing
}

// Continue advances the list by one dispatch cycle.
//
// In Series mode the first ongoing action is continued and the first action
// not yet started is started; the scan stops at the first action still
// ongoing after its step. In Parallel mode only actions that are ongoing
// are continued. Continue never starts actions in Parallel mode.
func (l *ActionList) Continue(h Handler) {
	l.ongoing = false
	if len(l.started) != len(l.actions) {
		l.started = make([]bool, len(l.actions))
	}

	for i, a := range l.actions {
		switch {
		case a.IsOngoing():
			a.Continue(h, l.args)
		case !l.started[i] && l.Mode == Series:
			l.started[i] = true
			a.Start(h, l.args)
		default:
			continue
		}

		if a.IsOngoing() {
			l.ongoing = true
			if l.Mode == Series {
				break
			}
		}
	}
	l.active = l.ongoing
}

// Stop terminates every ongoing action and clears the ongoing status.
func (l *ActionList) Stop(h Handler) {
	for _, a := range l.actions {
		if a.IsOngoing() {
			a.Stop(h, l.args)
		}
	}
	l.ongoing = false
	l.active = false
}

// String returns a one-line summary.
func (l *ActionList) String() string {
	parts := make([]string, len(l.actions))
	for i, a := range l.actions {
		parts[i] = a.String()
	}
	return fmt.Sprintf("#%d %s [%s] %s", l.ID, l.Event, l.Mode, strings.Join(parts, "; "))
}
