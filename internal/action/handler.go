package action

import (
	"time"

	"github.com/dshills/inputmap/internal/event"
	"github.com/google/uuid"
)

// Output performs the input effects requested by actions.
type Output interface {
	// SendKey presses or releases a key.
	SendKey(k KeyStroke, pressed bool)

	// TypeText types a string of characters.
	TypeText(text string)

	// MouseButton presses or releases a mouse button.
	MouseButton(button MouseButton, pressed bool)

	// SetWindowState changes the state of a custom window.
	SetWindowState(windowID int64, state WindowState)

	// StartProgram launches a program.
	StartProgram(path, args string)
}

// Handler is the execution environment of an action.
type Handler interface {
	Output

	// ChangeState requests a logical state change. Components set to
	// event.NoneID are left unchanged.
	ChangeState(target event.LogicalState)

	// Now returns the time of the current dispatch cycle.
	Now() time.Time
}

// EventArgs describes the event instance an action list was started for.
type EventArgs struct {
	// Instance identifies this occurrence of the event.
	Instance uuid.UUID

	// Event is the descriptor of the event.
	Event event.Descriptor

	// State is the logical state the event was resolved in.
	State event.LogicalState

	// Time is when the event was received.
	Time time.Time
}

// NewEventArgs creates event args with a fresh instance ID.
func NewEventArgs(d event.Descriptor, state event.LogicalState, t time.Time) *EventArgs {
	return &EventArgs{
		Instance: uuid.New(),
		Event:    d,
		State:    state,
		Time:     t,
	}
}
