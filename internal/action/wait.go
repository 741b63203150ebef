package action

import (
	"fmt"
	"time"
)

// TagWait is the document tag of WaitAction.
const TagWait = "WaitAction"

// WaitAction stays ongoing until its duration has elapsed. In a Series list
// it delays the actions that follow it.
type WaitAction struct {
	Duration time.Duration

	deadline time.Time
	ongoing  bool
}

func (a *WaitAction) Tag() string { return TagWait }

func (a *WaitAction) String() string {
	return fmt.Sprintf("Wait %s", a.Duration)
}

func (a *WaitAction) Start(h Handler, _ *EventArgs) {
	a.deadline = h.Now().Add(a.Duration)
	a.ongoing = a.Duration > 0
}

func (a *WaitAction) Continue(h Handler, _ *EventArgs) {
	if a.ongoing && !h.Now().Before(a.deadline) {
		a.ongoing = false
	}
}

func (a *WaitAction) Stop(Handler, *EventArgs) {
	a.ongoing = false
}

func (a *WaitAction) IsOngoing() bool { return a.ongoing }

func (a *WaitAction) Fields() Fields {
	f := Fields{}
	f.SetInt("ms", a.Duration.Milliseconds())
	return f
}

func (a *WaitAction) SetFields(f Fields) error {
	ms, err := f.Int("ms", 0)
	if err != nil {
		return err
	}
	if ms < 0 {
		return fmt.Errorf("%w: negative wait %d", ErrInvalidField, ms)
	}
	a.Duration = time.Duration(ms) * time.Millisecond
	return nil
}
